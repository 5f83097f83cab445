package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestEncodeWAV_Header(t *testing.T) {
	buf := NewSilence(24000, 2, 10)
	out := EncodeWAV(buf)

	if len(out) != 44+10*2*2 {
		t.Fatalf("len = %d, want %d", len(out), 44+40)
	}

	le := binary.LittleEndian
	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", le.Uint32(out[4:8]), uint32(len(out) - 8)},
		{"fmt size", le.Uint32(out[16:20]), 16},
		{"format tag", uint32(le.Uint16(out[20:22])), 1},
		{"channels", uint32(le.Uint16(out[22:24])), 2},
		{"sample rate", le.Uint32(out[24:28]), 24000},
		{"byte rate", le.Uint32(out[28:32]), 24000 * 2 * 2},
		{"block align", uint32(le.Uint16(out[32:34])), 4},
		{"bits", uint32(le.Uint16(out[34:36])), 16},
		{"data size", le.Uint32(out[40:44]), 40},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	for _, tag := range []struct {
		off  int
		want string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(out[tag.off : tag.off+4]); got != tag.want {
			t.Errorf("tag at %d = %q, want %q", tag.off, got, tag.want)
		}
	}
}

func TestEncodeWAV_InterleavesChannels(t *testing.T) {
	buf, err := NewBuffer(8000, [][]float32{{1, 0}, {-1, 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	out := EncodeWAV(buf)

	want := []int16{32767, -32768, 0, 16383}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(out[44+2*i:]))
		if got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestWAV_RoundTrip(t *testing.T) {
	samples := make([]float32, 2400)
	for i := range samples {
		samples[i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/24000))
	}
	samples[0] = 1.2 // 超出范围的样本被钳位
	samples[1] = -1.0

	src, err := NewMono(24000, samples)
	if err != nil {
		t.Fatal(err)
	}

	got, err := DecodeWAV(bytes.NewReader(EncodeWAV(src)))
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if got.SampleRate() != 24000 || got.Channels() != 1 || got.Frames() != len(samples) {
		t.Fatalf("format = %d Hz/%d ch/%d frames", got.SampleRate(), got.Channels(), got.Frames())
	}

	// 正数按 32767 量化、按 32768 还原，加上截断误差，总误差不超过 2/32768。
	const tolerance = 2.0 / 32768
	decoded := got.Channel(0)
	for i, s := range samples {
		want := math.Max(-1, math.Min(1, float64(s)))
		if diff := math.Abs(float64(decoded[i]) - want); diff > tolerance {
			t.Fatalf("sample %d: got %v, want %v (diff %v)", i, decoded[i], want, diff)
		}
	}
}

func TestDecodeWAV_Invalid(t *testing.T) {
	if _, err := DecodeWAV(bytes.NewReader([]byte("not a wav file at all"))); err == nil {
		t.Fatal("expected error for invalid input")
	}
}

// 第三方编码器写出的文件也应能被正确读取。
func TestDecodeWAV_ExternalEncoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 16000, 16, 2, 1)
	ib := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 16000},
		Data:           []int{16384, -16384, 0, 32767},
		SourceBitDepth: 16,
	}
	if err := enc.Write(ib); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := DecodeWAV(r)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if got.SampleRate() != 16000 || got.Channels() != 2 || got.Frames() != 2 {
		t.Fatalf("format = %d Hz/%d ch/%d frames", got.SampleRate(), got.Channels(), got.Frames())
	}
	if l := got.Channel(0); l[0] != 0.5 || l[1] != 0 {
		t.Errorf("left = %v, want [0.5 0]", l)
	}
	if right := got.Channel(1); right[0] != -0.5 {
		t.Errorf("right[0] = %v, want -0.5", right[0])
	}
}
