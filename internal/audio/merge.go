package audio

import (
	"errors"
	"fmt"
)

// ErrFormatMismatch 表示待合并的 Buffer 采样率或声道数不一致。
var ErrFormatMismatch = errors.New("音频格式不一致")

// Merge 按顺序逐声道拼接 Buffer。
//   - 空列表返回 1 帧静音（24000 Hz 单声道），便于后续编码；
//   - 单个 Buffer 原样返回，不做拷贝；
//   - 多个 Buffer 要求格式一致，否则返回 ErrFormatMismatch。
func Merge(bufs []*Buffer) (*Buffer, error) {
	switch len(bufs) {
	case 0:
		return NewSilence(DefaultSampleRate, 1, 1), nil
	case 1:
		return bufs[0], nil
	}

	first := bufs[0]
	total := 0
	for i, b := range bufs {
		if !first.sameFormat(b) {
			return nil, fmt.Errorf("第 %d 段 (%d Hz/%d 声道) 与第 0 段 (%d Hz/%d 声道): %w",
				i, b.sampleRate, b.Channels(), first.sampleRate, first.Channels(), ErrFormatMismatch)
		}
		total += b.Frames()
	}

	data := make([][]float32, first.Channels())
	for c := range data {
		ch := make([]float32, 0, total)
		for _, b := range bufs {
			ch = append(ch, b.data[c]...)
		}
		data[c] = ch
	}
	return &Buffer{sampleRate: first.sampleRate, data: data}, nil
}
