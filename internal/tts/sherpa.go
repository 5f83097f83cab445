package tts

import (
	"context"
	"fmt"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/iabetor/voxstudio/internal/audio"
	"github.com/iabetor/voxstudio/internal/logger"
)

// SherpaConfig sherpa-onnx 离线 VITS 模型配置。
type SherpaConfig struct {
	Model      string
	Lexicon    string
	Tokens     string
	DataDir    string
	NumThreads int
	Speed      float32
	Speakers   map[string]int // 音色 ID → speaker id
	SampleRate int
}

// SherpaEngine 使用 sherpa-onnx OfflineTts 在本地合成。
// 底层对象不支持并发调用，Synthesize 内部串行化。
type SherpaEngine struct {
	mu  sync.Mutex
	tts *sherpa.OfflineTts
	cfg SherpaConfig
}

// NewSherpaEngine 加载离线 TTS 模型。
func NewSherpaEngine(cfg SherpaConfig) (*SherpaEngine, error) {
	if cfg.NumThreads <= 0 {
		cfg.NumThreads = 2
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}

	config := sherpa.OfflineTtsConfig{}
	config.Model.Vits.Model = cfg.Model
	config.Model.Vits.Lexicon = cfg.Lexicon
	config.Model.Vits.Tokens = cfg.Tokens
	config.Model.Vits.DataDir = cfg.DataDir
	config.Model.Vits.NoiseScale = 0.667
	config.Model.Vits.NoiseScaleW = 0.8
	config.Model.Vits.LengthScale = 1.0
	config.Model.NumThreads = cfg.NumThreads
	config.Model.Provider = "cpu"
	config.MaxNumSentences = 1

	t := sherpa.NewOfflineTts(&config)
	if t == nil {
		return nil, fmt.Errorf("[tts] 创建 sherpa 离线 TTS 失败，模型: %s", cfg.Model)
	}
	logger.Infof("[tts] sherpa 离线 TTS 已加载: %s", cfg.Model)
	return &SherpaEngine{tts: t, cfg: cfg}, nil
}

func (e *SherpaEngine) Name() string { return "sherpa" }

func (e *SherpaEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sid := e.cfg.Speakers[req.Voice.ID]

	type result struct {
		pcm []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		generated := e.tts.Generate(req.Text, sid, e.cfg.Speed)
		if generated == nil || len(generated.Samples) == 0 {
			ch <- result{err: ErrNoAudio}
			return
		}
		if e.cfg.SampleRate > 0 && generated.SampleRate != e.cfg.SampleRate {
			ch <- result{err: fmt.Errorf("模型采样率 %d Hz 与流水线 %d Hz 不一致", generated.SampleRate, e.cfg.SampleRate)}
			return
		}
		ch <- result{pcm: audio.FloatsToPCM16LE(generated.Samples)}
	}()

	select {
	case r := <-ch:
		return r.pcm, r.err
	case <-ctx.Done():
		// 推理无法中断，结果被丢弃
		return nil, ctx.Err()
	}
}

// Close 释放模型。
func (e *SherpaEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tts != nil {
		sherpa.DeleteOfflineTts(e.tts)
		e.tts = nil
	}
}
