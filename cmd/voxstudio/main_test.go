package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iabetor/voxstudio/internal/pipeline"
)

func TestExportFilename(t *testing.T) {
	tests := map[string]string{
		"Arjun":     "voxstudio-arjun.wav",
		"Dev Anand": "voxstudio-dev-anand.wav",
		"  ":        "voxstudio-audio.wav",
	}
	for in, want := range tests {
		if got := exportFilename(in); got != want {
			t.Errorf("exportFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadText(t *testing.T) {
	got, err := readText([]string{"नमस्ते", "दुनिया"}, "", nil)
	if err != nil || got != "नमस्ते दुनिया" {
		t.Errorf("args: %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("from file"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = readText(nil, path, nil)
	if err != nil || got != "from file" {
		t.Errorf("file: %q, %v", got, err)
	}

	got, err = readText(nil, "", strings.NewReader("from stdin"))
	if err != nil || got != "from stdin" {
		t.Errorf("stdin: %q, %v", got, err)
	}

	if _, err := readText(nil, filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("missing file should fail")
	}
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := newProgressBar(&buf)
	bar.update(pipeline.Progress{Percent: 34, RemainingSeconds: 2, Total: 3})
	if !strings.Contains(buf.String(), " 34%") || !strings.Contains(buf.String(), "剩余约 2s") {
		t.Errorf("progress line = %q", buf.String())
	}
	buf.Reset()
	bar.update(pipeline.Progress{Percent: 100, Done: true})
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Errorf("terminal event should end the line: %q", buf.String())
	}
}
