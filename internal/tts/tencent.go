package tts

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tts "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"

	"github.com/iabetor/voxstudio/internal/logger"
)

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID   string
	SecretKey  string
	Region     string
	VoiceType  int64            // 默认音色
	Voices     map[string]int64 // 音色 ID → 腾讯云 VoiceType
	Speed      float64
	SampleRate int // 仅支持 8000/16000/24000
}

// TencentEngine 使用腾讯云 TextToVoice 接口合成，直接请求 pcm 编码。
type TencentEngine struct {
	client *tts.Client
	cfg    TencentConfig
}

// tencentEmotions 把朗读风格映射为腾讯云多情感音色的 EmotionCategory。
var tencentEmotions = map[Style]string{
	StyleEmotional:    "sad",
	StyleStorytelling: "story",
	StyleNews:         "news",
}

// NewTencentEngine 创建腾讯云 TTS 引擎。
func NewTencentEngine(cfg TencentConfig) (*TencentEngine, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS 需要 SecretID 和 SecretKey")
	}
	if cfg.Region == "" {
		cfg.Region = "ap-guangzhou"
	}
	if cfg.VoiceType == 0 {
		cfg.VoiceType = 101001
	}
	switch cfg.SampleRate {
	case 0:
		cfg.SampleRate = 24000
	case 8000, 16000, 24000:
	default:
		return nil, fmt.Errorf("[tts] 腾讯云 TTS 不支持采样率 %d", cfg.SampleRate)
	}

	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := tts.NewClient(credential, cfg.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("[tts] 创建腾讯云 TTS 客户端失败: %w", err)
	}

	logger.Infof("[tts] 腾讯云 TTS 引擎已初始化 (voice=%d, region=%s, rate=%d)", cfg.VoiceType, cfg.Region, cfg.SampleRate)
	return &TencentEngine{client: client, cfg: cfg}, nil
}

func (e *TencentEngine) Name() string { return "tencent" }

func (e *TencentEngine) voiceFor(v Voice) int64 {
	if vt, ok := e.cfg.Voices[v.ID]; ok && vt != 0 {
		return vt
	}
	return e.cfg.VoiceType
}

func (e *TencentEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	voiceType := e.voiceFor(req.Voice)
	logger.Debugf("[tts] 腾讯云 TTS: 正在合成 %d 个字符，音色=%d", len([]rune(req.Text)), voiceType)

	request := tts.NewTextToVoiceRequest()
	request.Text = common.StringPtr(req.Text)
	request.SessionId = common.StringPtr(uuid.NewString())
	request.VoiceType = common.Int64Ptr(voiceType)
	request.Codec = common.StringPtr("pcm")
	request.SampleRate = common.Uint64Ptr(uint64(e.cfg.SampleRate))
	request.Speed = common.Float64Ptr(e.cfg.Speed)
	if emotion, ok := tencentEmotions[req.Style]; ok {
		request.EmotionCategory = common.StringPtr(emotion)
	}

	response, err := e.client.TextToVoiceWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("TextToVoice 调用失败: %w", err)
	}
	if response.Response == nil || response.Response.Audio == nil {
		return nil, ErrNoAudio
	}

	pcm, err := base64.StdEncoding.DecodeString(*response.Response.Audio)
	if err != nil {
		return nil, fmt.Errorf("Base64 解码失败: %w", err)
	}
	logger.Debugf("[tts] 腾讯云 TTS: 收到 %d 字节 PCM", len(pcm))
	return pcm, nil
}
