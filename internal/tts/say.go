package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/iabetor/voxstudio/internal/audio"
	"github.com/iabetor/voxstudio/internal/logger"
)

// SayEngine 使用 macOS 内置 say 命令实现离线语音合成，仅在 macOS 上可用。
type SayEngine struct {
	voice      string            // 默认系统语音，如 "Lekha"（印地语）
	voices     map[string]string // 音色 ID → 系统语音
	sampleRate int
}

// NewSayEngine 创建 say 引擎，voice 为空时使用系统默认语音。
func NewSayEngine(voice string, voices map[string]string, sampleRate int) *SayEngine {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &SayEngine{voice: voice, voices: voices, sampleRate: sampleRate}
}

func (s *SayEngine) Name() string { return "say" }

// Synthesize 先用 say 输出 AIFF，再用 afconvert 转成目标采样率的 16-bit WAV。
func (s *SayEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	logger.Debugf("[tts] say: 正在合成 %d 个字符", len([]rune(req.Text)))

	tmpFile, err := os.CreateTemp("", "voxstudio-say-*.aiff")
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	aiffPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(aiffPath)

	wavPath := aiffPath + ".wav"
	defer os.Remove(wavPath)

	args := []string{"-o", aiffPath}
	voice := s.voice
	if v, ok := s.voices[req.Voice.ID]; ok && v != "" {
		voice = v
	}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args, req.Text)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "say", args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("say 执行失败: %w, stderr: %s", err, stderr.String())
	}

	stderr.Reset()
	convert := exec.CommandContext(ctx, "afconvert",
		"-f", "WAVE",
		"-d", fmt.Sprintf("LEI16@%d", s.sampleRate),
		"-c", "1",
		aiffPath, wavPath,
	)
	convert.Stderr = &stderr
	if err := convert.Run(); err != nil {
		return nil, fmt.Errorf("afconvert 执行失败: %w, stderr: %s", err, stderr.String())
	}

	f, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("读取输出文件失败: %w", err)
	}
	defer f.Close()

	pcm, rate, channels, err := audio.ReadPCM16(f)
	if err != nil {
		return nil, err
	}
	if rate != s.sampleRate || channels != 1 {
		return nil, fmt.Errorf("afconvert 输出 %d Hz/%d 声道，期望 %d Hz/1 声道", rate, channels, s.sampleRate)
	}
	return pcm, nil
}
