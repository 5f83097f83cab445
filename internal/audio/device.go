package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/iabetor/voxstudio/internal/logger"
)

// DeviceSink 通过 malgo (miniaudio) 持有一个常驻的播放设备，
// 以已输出帧数作为时钟，在回调中按帧位置混合所有已排入的单元。
type DeviceSink struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	channels   int

	rendered atomic.Uint64 // 已交给设备的帧数

	mu     sync.Mutex
	voices []*voice
	mix    []float32
	closed bool
}

// voice 是正在设备上排队或发声的单元。
type voice struct {
	h          *Handle
	startFrame uint64
	pos        float64 // 源缓冲中的读位置（帧）
	step       float64 // 每个设备帧前进的源帧数，含变速与采样率换算
	data       [][]float32
	started    bool
}

var _ Sink = (*DeviceSink)(nil)

// NewDeviceSink 打开默认扬声器并立即启动，设备在 Close 之前一直运行。
func NewDeviceSink(sampleRate, channels int) (*DeviceSink, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("[audio] 非法设备参数: %d Hz, %d 声道", sampleRate, channels)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("初始化播放上下文失败: %w", err)
	}

	d := &DeviceSink{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = 512
	deviceConfig.Periods = 2

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			d.render(out, int(frameCount))
		},
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("初始化播放设备失败: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("启动播放设备失败: %w", err)
	}
	d.device = device

	logger.Infof("[audio] 播放设备已启动: %d Hz, %d 声道", sampleRate, channels)
	return d, nil
}

// Now 返回设备时钟：已输出帧数 / 采样率。
func (d *DeviceSink) Now() time.Duration {
	return FramesToDuration(int(d.rendered.Load()), d.sampleRate)
}

// Submit 把单元加入混音队列。
func (d *DeviceSink) Submit(h *Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("播放设备已关闭")
	}

	data := make([][]float32, d.channels)
	for c := range data {
		// 声道数不一致时复用源的第 0 声道
		src := 0
		if c < h.buf.Channels() {
			src = c
		}
		data[c] = h.buf.data[src]
	}
	d.voices = append(d.voices, &voice{
		h:          h,
		startFrame: uint64(math.Round(h.start.Seconds() * float64(d.sampleRate))),
		step:       h.rate * float64(h.buf.sampleRate) / float64(d.sampleRate),
		data:       data,
	})
	return nil
}

// Cancel 从混音队列移除单元，已结束的单元直接忽略。
func (d *DeviceSink) Cancel(h *Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, v := range d.voices {
		if v.h == h {
			d.voices = append(d.voices[:i], d.voices[i+1:]...)
			return
		}
	}
}

// render 在设备线程中运行：混合所有到期单元并写入 S16 输出。
func (d *DeviceSink) render(out []byte, frameCount int) {
	var started, finished []*Handle

	d.mu.Lock()
	n := frameCount * d.channels
	if cap(d.mix) < n {
		d.mix = make([]float32, n)
	}
	mix := d.mix[:n]
	for i := range mix {
		mix[i] = 0
	}

	base := d.rendered.Load()
	kept := d.voices[:0]
	for _, v := range d.voices {
		frames := len(v.data[0])
		done := false
		for f := 0; f < frameCount; f++ {
			if base+uint64(f) < v.startFrame {
				continue
			}
			if !v.started {
				v.started = true
				started = append(started, v.h)
			}
			idx := int(v.pos)
			if idx >= frames {
				done = true
				break
			}
			frac := float32(v.pos - float64(idx))
			for c := 0; c < d.channels; c++ {
				s := v.data[c][idx]
				if idx+1 < frames {
					// 线性插值，用于变速播放
					s += (v.data[c][idx+1] - s) * frac
				}
				mix[f*d.channels+c] += s
			}
			v.pos += v.step
		}
		if !done && v.started && int(v.pos) >= frames {
			done = true
		}
		if done {
			finished = append(finished, v.h)
			continue
		}
		kept = append(kept, v)
	}
	for i := len(kept); i < len(d.voices); i++ {
		d.voices[i] = nil
	}
	d.voices = kept
	d.rendered.Add(uint64(frameCount))

	for i, s := range mix {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(FloatToPCM16(s)))
	}
	d.mu.Unlock()

	for _, h := range started {
		h.MarkStarted()
	}
	for _, h := range finished {
		h.Finish()
	}
}

// Close 停止设备并释放资源，仍在队列中的单元被视为结束。
func (d *DeviceSink) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	pending := d.voices
	d.voices = nil
	d.mu.Unlock()

	if d.device != nil {
		_ = d.device.Stop()
		d.device.Uninit()
	}
	if d.ctx != nil {
		_ = d.ctx.Uninit()
		d.ctx.Free()
	}
	for _, v := range pending {
		v.h.Finish()
	}
	logger.Info("[audio] 播放设备已关闭")
}
