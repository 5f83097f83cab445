package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iabetor/voxstudio/internal/config"
	"github.com/iabetor/voxstudio/internal/logger"
	"github.com/iabetor/voxstudio/internal/tts"
)

// NewEngine 根据配置创建合成引擎。所有引擎都输出流水线采样率的单声道 PCM16。
func NewEngine(cfg *config.Config) (tts.Engine, error) {
	s := cfg.Synthesis
	rate := cfg.Audio.SampleRate

	switch s.Engine {
	case "gemini":
		eng, err := tts.NewGeminiEngine(tts.GeminiConfig{
			APIKey:  s.Gemini.APIKey,
			Model:   s.Gemini.Model,
			BaseURL: s.Gemini.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		if eng.SampleRate() != rate {
			return nil, fmt.Errorf("[pipeline] Gemini 只输出 %d Hz，与配置的 %d Hz 不一致", eng.SampleRate(), rate)
		}
		return eng, nil

	case "edge":
		return tts.NewEdgeEngine(tts.EdgeConfig{
			Voice:      s.Edge.Voice,
			Voices:     s.Edge.Voices,
			SampleRate: rate,
		}), nil

	case "tencent":
		return tts.NewTencentEngine(tts.TencentConfig{
			SecretID:   s.Tencent.SecretID,
			SecretKey:  s.Tencent.SecretKey,
			Region:     s.Tencent.Region,
			VoiceType:  s.Tencent.VoiceType,
			Voices:     s.Tencent.Voices,
			Speed:      s.Tencent.Speed,
			SampleRate: rate,
		})

	case "piper":
		return tts.NewPiperEngine(s.Piper.ModelPath, s.Piper.Speakers, rate)

	case "say":
		return tts.NewSayEngine(s.Say.Voice, s.Say.Voices, rate), nil

	case "sherpa":
		dir := s.Sherpa.ModelPath
		sc := tts.SherpaConfig{
			Model:      filepath.Join(dir, "model.onnx"),
			Lexicon:    filepath.Join(dir, "lexicon.txt"),
			Tokens:     filepath.Join(dir, "tokens.txt"),
			NumThreads: s.Sherpa.NumThreads,
			Speakers:   s.Sherpa.Speakers,
			SampleRate: rate,
		}
		// espeak-ng 数据目录可选，部分 VITS 模型需要
		if data := filepath.Join(dir, "espeak-ng-data"); dirExists(data) {
			sc.DataDir = data
		}
		logger.Debugf("[pipeline] sherpa 模型目录: %s", dir)
		return tts.NewSherpaEngine(sc)
	}
	return nil, fmt.Errorf("[pipeline] 未知的合成引擎: %s", s.Engine)
}

func dirExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
