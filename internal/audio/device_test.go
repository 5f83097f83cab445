package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

func newDeviceHandle(buf *Buffer, rate float64, start time.Duration) *Handle {
	return &Handle{
		buf:     buf,
		rate:    rate,
		start:   start,
		end:     start + time.Duration(buf.Seconds()/rate*float64(time.Second)),
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func constant(t *testing.T, rate, frames int, v float32) *Buffer {
	t.Helper()
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = v
	}
	return mono(t, rate, samples...)
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// renderFrames 调用一次设备回调并返回交织的 int16 样本。
func renderFrames(d *DeviceSink, frames int) []int16 {
	out := make([]byte, frames*d.channels*2)
	d.render(out, frames)
	samples := make([]int16, frames*d.channels)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[2*i:]))
	}
	return samples
}

func TestDeviceSink_RenderGapless(t *testing.T) {
	d := &DeviceSink{sampleRate: 100, channels: 1}

	// 每帧 10ms：三个单元依次从第 0、10、20 帧开始，第三个以 2 倍速播放
	handles := []*Handle{
		newDeviceHandle(constant(t, 100, 10, 0.25), 1, 0),
		newDeviceHandle(constant(t, 100, 10, 0.5), 1, 100*time.Millisecond),
		newDeviceHandle(constant(t, 100, 10, 0.75), 2, 200*time.Millisecond),
	}
	for _, h := range handles {
		if err := d.Submit(h); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	got := renderFrames(d, 32)

	for f, s := range got {
		var want int16
		switch {
		case f < 10:
			want = FloatToPCM16(0.25)
		case f < 20:
			want = FloatToPCM16(0.5)
		case f < 25:
			want = FloatToPCM16(0.75)
		}
		if s != want {
			t.Errorf("frame %d = %d, want %d", f, s, want)
		}
	}

	for i, h := range handles {
		if !isClosed(h.Started()) {
			t.Errorf("handle %d not started", i)
		}
		if !isClosed(h.Done()) {
			t.Errorf("handle %d not done", i)
		}
	}
	if len(d.voices) != 0 {
		t.Errorf("voices = %d, want 0", len(d.voices))
	}
	if now := d.Now(); now != 320*time.Millisecond {
		t.Errorf("Now = %v, want 320ms", now)
	}
}

func TestDeviceSink_RenderInterpolatesSlowRate(t *testing.T) {
	d := &DeviceSink{sampleRate: 100, channels: 1}
	h := newDeviceHandle(mono(t, 100, 0, 0.5), 0.5, 0)
	if err := d.Submit(h); err != nil {
		t.Fatal(err)
	}

	got := renderFrames(d, 6)
	want := []int16{0, FloatToPCM16(0.25), FloatToPCM16(0.5), FloatToPCM16(0.5), 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %d, want %d", i, got[i], want[i])
		}
	}
	if !isClosed(h.Done()) {
		t.Error("handle not done after 4 frames at half rate")
	}
}

func TestDeviceSink_RenderAcrossCallbacks(t *testing.T) {
	d := &DeviceSink{sampleRate: 100, channels: 1}
	h := newDeviceHandle(constant(t, 100, 10, 0.5), 1, 50*time.Millisecond)
	if err := d.Submit(h); err != nil {
		t.Fatal(err)
	}

	first := renderFrames(d, 8)
	for f, s := range first {
		want := int16(0)
		if f >= 5 {
			want = FloatToPCM16(0.5)
		}
		if s != want {
			t.Errorf("first callback frame %d = %d, want %d", f, s, want)
		}
	}
	if !isClosed(h.Started()) {
		t.Fatal("handle should have started in first callback")
	}
	if isClosed(h.Done()) {
		t.Fatal("handle finished too early")
	}

	// 剩余 7 帧在第二次回调的开头播完
	second := renderFrames(d, 8)
	for f, s := range second {
		want := int16(0)
		if f < 7 {
			want = FloatToPCM16(0.5)
		}
		if s != want {
			t.Errorf("second callback frame %d = %d, want %d", f, s, want)
		}
	}
	if !isClosed(h.Done()) {
		t.Error("handle not done after second callback")
	}
}

func TestDeviceSink_MonoBufferOnStereoDevice(t *testing.T) {
	d := &DeviceSink{sampleRate: 100, channels: 2}
	h := newDeviceHandle(mono(t, 100, 0.5, -0.5), 1, 0)
	if err := d.Submit(h); err != nil {
		t.Fatal(err)
	}

	got := renderFrames(d, 2)
	want := []int16{FloatToPCM16(0.5), FloatToPCM16(0.5), FloatToPCM16(-0.5), FloatToPCM16(-0.5)}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDeviceSink_CancelRemovesVoice(t *testing.T) {
	d := &DeviceSink{sampleRate: 100, channels: 1}
	h := newDeviceHandle(constant(t, 100, 10, 0.5), 1, 0)
	if err := d.Submit(h); err != nil {
		t.Fatal(err)
	}
	d.Cancel(h)

	for f, s := range renderFrames(d, 4) {
		if s != 0 {
			t.Errorf("frame %d = %d, want silence", f, s)
		}
	}
	if isClosed(h.Started()) {
		t.Error("cancelled handle should never start")
	}
}

func TestDeviceSink_CloseFinishesPending(t *testing.T) {
	d := &DeviceSink{sampleRate: 100, channels: 1}
	h := newDeviceHandle(constant(t, 100, 10, 0.5), 1, 0)
	if err := d.Submit(h); err != nil {
		t.Fatal(err)
	}

	d.Close()
	if !isClosed(h.Done()) {
		t.Error("pending handle not finished on Close")
	}
	if err := d.Submit(newDeviceHandle(constant(t, 100, 1, 0), 1, 0)); err == nil {
		t.Error("expected error submitting to a closed sink")
	}
	d.Close()
}
