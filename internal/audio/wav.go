package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavHeaderSize = 44

// EncodeWAV 将 Buffer 编码为标准 PCM16 WAV（RIFF/WAVE，44 字节头，小端）。
func EncodeWAV(b *Buffer) []byte {
	channels := b.Channels()
	frames := b.Frames()
	dataSize := frames * channels * 2
	out := make([]byte, wavHeaderSize+dataSize)

	le := binary.LittleEndian
	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(len(out)-8))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], 1) // PCM
	le.PutUint16(out[22:24], uint16(channels))
	le.PutUint32(out[24:28], uint32(b.sampleRate))
	le.PutUint32(out[28:32], uint32(b.sampleRate*2*channels))
	le.PutUint16(out[32:34], uint16(channels*2))
	le.PutUint16(out[34:36], 16)

	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(dataSize))

	pos := wavHeaderSize
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			le.PutUint16(out[pos:], uint16(FloatToPCM16(b.data[c][i])))
			pos += 2
		}
	}
	return out
}

// WriteWAV 将 Buffer 以 WAV 格式写入 w。
func WriteWAV(w io.Writer, b *Buffer) error {
	if _, err := w.Write(EncodeWAV(b)); err != nil {
		return fmt.Errorf("[audio] 写入 WAV 失败: %w", err)
	}
	return nil
}

// ReadPCM16 读取 16-bit PCM WAV，返回交织的小端样本字节、采样率和声道数。
func ReadPCM16(r io.ReadSeeker) ([]byte, int, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, 0, &DecodeError{Reason: "不是有效的 WAV 文件"}
	}
	if dec.BitDepth != 16 {
		return nil, 0, 0, &DecodeError{Channels: int(dec.NumChans), Reason: fmt.Sprintf("仅支持 16-bit，实际 %d-bit", dec.BitDepth)}
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("[audio] 读取 WAV 数据失败: %w", err)
	}

	return intBufferToPCM16(buf), buf.Format.SampleRate, buf.Format.NumChannels, nil
}

func intBufferToPCM16(buf *goaudio.IntBuffer) []byte {
	pcm := make([]byte, len(buf.Data)*2)
	for i, v := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(v)))
	}
	return pcm
}

// DecodeWAV 读取 16-bit PCM WAV 为 Buffer，用于历史记录回放和导出文件校验。
func DecodeWAV(r io.ReadSeeker) (*Buffer, error) {
	pcm, rate, channels, err := ReadPCM16(r)
	if err != nil {
		return nil, err
	}
	return Decode(pcm, rate, channels)
}
