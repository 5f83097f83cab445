package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/iabetor/voxstudio/internal/audio"
	"github.com/iabetor/voxstudio/internal/logger"
)

const defaultEdgeVoice = "hi-IN-MadhurNeural"

// EdgeConfig Edge TTS 配置。
type EdgeConfig struct {
	Voice      string            // 默认音色
	Voices     map[string]string // 音色 ID → Edge 音色名
	SampleRate int               // 期望的输出采样率
}

// EdgeEngine 使用微软 Edge TTS 实现语音合成，
// 通过 edge-tts-go 获取 MP3 音频，再用 go-mp3 解码并混为单声道 PCM。
type EdgeEngine struct {
	cfg EdgeConfig
}

// NewEdgeEngine 创建 Edge TTS 引擎。
func NewEdgeEngine(cfg EdgeConfig) *EdgeEngine {
	if cfg.Voice == "" {
		cfg.Voice = defaultEdgeVoice
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	return &EdgeEngine{cfg: cfg}
}

func (e *EdgeEngine) Name() string { return "edge" }

// voiceFor 把音色目录 ID 映射为 Edge 音色名。
func (e *EdgeEngine) voiceFor(v Voice) string {
	if name, ok := e.cfg.Voices[v.ID]; ok && name != "" {
		return name
	}
	return e.cfg.Voice
}

func (e *EdgeEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	voice := e.voiceFor(req.Voice)
	logger.Debugf("[tts] edge-tts: 正在合成 %d 个字符，语音=%s", len([]rune(req.Text)), voice)

	comm, err := edge.NewCommunicate(req.Text, edge.WithVoice(voice))
	if err != nil {
		return nil, fmt.Errorf("edge-tts 创建实例失败: %w", err)
	}
	ch, err := comm.Stream()
	if err != nil {
		return nil, fmt.Errorf("edge-tts 开始流式合成失败: %w", err)
	}

	var mp3Buf bytes.Buffer
	for msg := range ch {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		// type=="audio" 的条目携带 MP3 数据
		if msgType, ok := msg["type"].(string); ok && msgType == "audio" {
			if data, ok := msg["data"].([]byte); ok {
				mp3Buf.Write(data)
			}
		}
	}
	if mp3Buf.Len() == 0 {
		return nil, ErrNoAudio
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(mp3Buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("MP3 解码失败: %w", err)
	}
	if decoder.SampleRate() != e.cfg.SampleRate {
		return nil, fmt.Errorf("edge-tts 采样率 %d Hz 与配置 %d Hz 不一致", decoder.SampleRate(), e.cfg.SampleRate)
	}

	// go-mp3 总是输出立体声 16-bit LE
	stereo, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("读取 PCM 数据失败: %w", err)
	}
	pcm := audio.DownmixStereoPCM16LE(stereo)
	logger.Debugf("[tts] edge-tts: MP3 %d 字节 → PCM %d 字节", mp3Buf.Len(), len(pcm))
	return pcm, nil
}
