package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/iabetor/voxstudio/internal/logger"
)

// PiperEngine 使用 piper CLI 子进程实现离线语音合成。
// piper 以模型自身的采样率输出 16-bit 单声道 PCM，无法重采样，
// 因此创建时校验模型配置里的采样率与流水线一致。
type PiperEngine struct {
	modelPath string
	speakers  map[string]int // 音色 ID → 多说话人模型的 speaker id
}

// piperModelConfig 是 <model>.onnx.json 中用到的字段。
type piperModelConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
}

// NewPiperEngine 创建 Piper 引擎，sampleRate 为流水线采样率。
func NewPiperEngine(modelPath string, speakers map[string]int, sampleRate int) (*PiperEngine, error) {
	data, err := os.ReadFile(modelPath + ".json")
	if err != nil {
		return nil, fmt.Errorf("[tts] 读取 piper 模型配置失败: %w", err)
	}
	var mc piperModelConfig
	if err := json.Unmarshal(data, &mc); err != nil {
		return nil, fmt.Errorf("[tts] 解析 piper 模型配置失败: %w", err)
	}
	if mc.Audio.SampleRate != sampleRate {
		return nil, fmt.Errorf("[tts] piper 模型采样率 %d Hz 与流水线 %d Hz 不一致", mc.Audio.SampleRate, sampleRate)
	}
	return &PiperEngine{modelPath: modelPath, speakers: speakers}, nil
}

func (p *PiperEngine) Name() string { return "piper" }

func (p *PiperEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	logger.Debugf("[tts] piper: 正在合成 %d 个字符，模型=%s", len([]rune(req.Text)), p.modelPath)

	args := []string{"--model", p.modelPath, "--output-raw"}
	if sid, ok := p.speakers[req.Voice.ID]; ok {
		args = append(args, "--speaker", fmt.Sprint(sid))
	}
	cmd := exec.CommandContext(ctx, "piper", args...)
	cmd.Stdin = bytes.NewReader([]byte(req.Text))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if s := stderr.String(); s != "" {
			logger.Warnf("[tts] piper stderr: %s", s)
		}
		return nil, fmt.Errorf("piper 执行失败: %w", err)
	}

	pcm := stdout.Bytes()
	if len(pcm) == 0 {
		return nil, ErrNoAudio
	}
	// 输出应为整数个 16-bit 样本，奇数字节由解码器报错
	logger.Debugf("[tts] piper: 收到 %d 字节原始 PCM", len(pcm))
	return pcm, nil
}
