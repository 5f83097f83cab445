package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/iabetor/voxstudio/internal/pipeline"
)

const barWidth = 30

// progressBar 在终端同一行刷新进度。
type progressBar struct {
	w io.Writer
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w}
}

func (b *progressBar) update(p pipeline.Progress) {
	filled := p.Percent * barWidth / 100
	line := fmt.Sprintf("\r[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(" ", barWidth-filled), p.Percent)
	if !p.Done && p.RemainingSeconds > 0 {
		line += fmt.Sprintf("  剩余约 %.0fs", p.RemainingSeconds)
	}
	fmt.Fprint(b.w, line+"    ")
	if p.Done {
		fmt.Fprintln(b.w)
	}
}
