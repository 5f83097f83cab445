package audio

import "encoding/binary"

// PCM16ToFloat 将 int16 样本归一化到 [-1.0, 1.0)，除数为 32768。
func PCM16ToFloat(s int16) float32 {
	return float32(s) / 32768.0
}

// FloatToPCM16 将浮点样本钳位到 [-1, 1] 后量化为 int16：
// 负数乘 32768，正数乘 32767，向零截断。
func FloatToPCM16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

// FloatsToPCM16LE 将单声道浮点样本编码为 16-bit 小端 PCM 字节。
func FloatsToPCM16LE(in []float32) []byte {
	out := make([]byte, len(in)*2)
	for i, s := range in {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(FloatToPCM16(s)))
	}
	return out
}

// DownmixStereoPCM16LE 将交织立体声 16-bit PCM 左右取平均转为单声道，
// 不完整的尾部帧被丢弃。
func DownmixStereoPCM16LE(pcm []byte) []byte {
	const bytesPerFrame = 4
	frames := len(pcm) / bytesPerFrame
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		off := i * bytesPerFrame
		left := int32(int16(binary.LittleEndian.Uint16(pcm[off:])))
		right := int32(int16(binary.LittleEndian.Uint16(pcm[off+2:])))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16((left+right)/2)))
	}
	return out
}
