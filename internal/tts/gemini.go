package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iabetor/voxstudio/internal/logger"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash-preview-tts"
	geminiSampleRate     = 24000
)

// GeminiConfig Gemini TTS 配置。
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiEngine 通过 Gemini generateContent 接口合成语音，
// 返回的 inlineData 是 24 kHz 单声道 16-bit PCM。
type GeminiEngine struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiEngine 创建 Gemini TTS 引擎。
func NewGeminiEngine(cfg GeminiConfig) (*GeminiEngine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("[tts] Gemini TTS 需要 API Key")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	return &GeminiEngine{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		// 单次调用的时限由 TimedEngine 控制，这里只兜底
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (g *GeminiEngine) Name() string { return "gemini" }

// SampleRate 返回 Gemini 固定的输出采样率。
func (g *GeminiEngine) SampleRate() int { return geminiSampleRate }

type geminiPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MimeType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		ResponseModalities []string `json:"responseModalities"`
		SpeechConfig       struct {
			VoiceConfig struct {
				PrebuiltVoiceConfig struct {
					VoiceName string `json:"voiceName"`
				} `json:"prebuiltVoiceConfig"`
			} `json:"voiceConfig"`
		} `json:"speechConfig"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// buildPrompt 把角色、音色和风格说明放在台本前面。
func buildPrompt(req Request) string {
	return fmt.Sprintf("Role: Pro Hindi Voice Artist. Engine: %s. Persona: %s. Style: %s. Output: Natural, human cadence.\n\nScript:\n%s",
		req.Voice.ProviderVoice, req.Voice.Persona, req.Style.Detail(), req.Text)
}

// Synthesize 调用 generateContent 并返回解码后的 PCM 字节。
func (g *GeminiEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	logger.Debugf("[tts] gemini: 正在合成 %d 个字符，音色=%s，风格=%s", len([]rune(req.Text)), req.Voice.ProviderVoice, req.Style)

	var body geminiRequest
	body.Contents = []geminiContent{{Parts: []geminiPart{{Text: buildPrompt(req)}}}}
	body.GenerationConfig.ResponseModalities = []string{"AUDIO"}
	body.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = req.Voice.ProviderVoice

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API 返回状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 ||
		out.Candidates[0].Content.Parts[0].InlineData == nil || out.Candidates[0].Content.Parts[0].InlineData.Data == "" {
		return nil, ErrNoAudio
	}

	inline := out.Candidates[0].Content.Parts[0].InlineData
	if rate, ok := mimeRate(inline.MimeType); ok && rate != geminiSampleRate {
		return nil, fmt.Errorf("意外的采样率 %d (mimeType=%s)", rate, inline.MimeType)
	}

	pcm, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return nil, fmt.Errorf("Base64 解码失败: %w", err)
	}
	logger.Debugf("[tts] gemini: 收到 %d 字节 PCM", len(pcm))
	return pcm, nil
}

// mimeRate 从 "audio/L16;codec=pcm;rate=24000" 中取出采样率。
func mimeRate(mime string) (int, bool) {
	for _, p := range strings.Split(mime, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok && strings.EqualFold(k, "rate") {
			n, err := strconv.Atoi(v)
			return n, err == nil
		}
	}
	return 0, false
}
