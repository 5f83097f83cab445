package audio

import (
	"encoding/binary"
	"fmt"
)

// DecodeError 表示原始 PCM 字节不满足解码前提。
type DecodeError struct {
	Size     int
	Channels int
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("[audio] 解码失败: %s (字节数=%d, 声道数=%d)", e.Reason, e.Size, e.Channels)
}

// Decode 将交织的 16-bit 小端有符号 PCM 转换为归一化的浮点 Buffer。
// 每个样本除以 32768.0，结果落在 [-1.0, 1.0) 区间。
func Decode(raw []byte, sampleRate, channels int) (*Buffer, error) {
	if channels <= 0 {
		return nil, &DecodeError{Size: len(raw), Channels: channels, Reason: "声道数必须为正"}
	}
	if sampleRate <= 0 {
		return nil, &DecodeError{Size: len(raw), Channels: channels, Reason: fmt.Sprintf("非法采样率 %d", sampleRate)}
	}
	frameBytes := channels * 2
	if len(raw)%frameBytes != 0 {
		return nil, &DecodeError{Size: len(raw), Channels: channels, Reason: fmt.Sprintf("字节数不是 %d 的整数倍", frameBytes)}
	}

	frames := len(raw) / frameBytes
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		base := i * frameBytes
		for c := 0; c < channels; c++ {
			s := int16(binary.LittleEndian.Uint16(raw[base+2*c:]))
			data[c][i] = PCM16ToFloat(s)
		}
	}
	return &Buffer{sampleRate: sampleRate, data: data}, nil
}
