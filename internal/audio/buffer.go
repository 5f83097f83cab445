package audio

import (
	"fmt"
	"math"
	"time"
)

// DefaultSampleRate 是合成服务返回 PCM 的采样率。
const DefaultSampleRate = 24000

// Buffer 是解码后的归一化浮点音频，按声道分别存储。
// 创建后不可修改，可以在多个 goroutine 间共享。
type Buffer struct {
	sampleRate int
	data       [][]float32
}

// NewBuffer 用按声道排列的样本创建 Buffer，接管 channels 的所有权。
// 各声道长度必须一致。
func NewBuffer(sampleRate int, channels [][]float32) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("非法采样率: %d", sampleRate)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("声道数不能为 0")
	}
	frames := len(channels[0])
	for i, ch := range channels {
		if len(ch) != frames {
			return nil, fmt.Errorf("声道 %d 长度 %d 与声道 0 长度 %d 不一致", i, len(ch), frames)
		}
	}
	return &Buffer{sampleRate: sampleRate, data: channels}, nil
}

// NewMono 用单声道样本创建 Buffer。
func NewMono(sampleRate int, samples []float32) (*Buffer, error) {
	return NewBuffer(sampleRate, [][]float32{samples})
}

// NewSilence 创建指定帧数的静音 Buffer。
func NewSilence(sampleRate, channels, frames int) *Buffer {
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, frames)
	}
	return &Buffer{sampleRate: sampleRate, data: data}
}

func (b *Buffer) SampleRate() int { return b.sampleRate }

func (b *Buffer) Channels() int { return len(b.data) }

// Frames 返回每个声道的样本数。
func (b *Buffer) Frames() int {
	if len(b.data) == 0 {
		return 0
	}
	return len(b.data[0])
}

// Channel 返回第 i 个声道样本的拷贝。
func (b *Buffer) Channel(i int) []float32 {
	out := make([]float32, len(b.data[i]))
	copy(out, b.data[i])
	return out
}

// Seconds 返回以秒计的时长（frames / sampleRate）。
func (b *Buffer) Seconds() float64 {
	return float64(b.Frames()) / float64(b.sampleRate)
}

// Duration 返回时长。
func (b *Buffer) Duration() time.Duration {
	return FramesToDuration(b.Frames(), b.sampleRate)
}

// sameFormat 判断两个 Buffer 的采样率和声道数是否一致。
func (b *Buffer) sameFormat(o *Buffer) bool {
	return b.sampleRate == o.sampleRate && len(b.data) == len(o.data)
}

// FramesToDuration 将帧数换算为时长。
func FramesToDuration(frames, sampleRate int) time.Duration {
	return time.Duration(math.Round(float64(frames) / float64(sampleRate) * float64(time.Second)))
}
