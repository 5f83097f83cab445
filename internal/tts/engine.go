package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Engine 定义语音合成后端接口。
type Engine interface {
	// Name 返回引擎名称，用于日志和错误信息。
	Name() string
	// Synthesize 将文本合成为 16-bit 小端单声道 PCM，采样率由引擎配置决定。
	// 对相同请求应当是幂等的，合成结果因此可以按内容缓存。
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// Request 是一次合成请求。
type Request struct {
	Text  string
	Voice Voice
	Style Style
}

// Style 是朗读风格。
type Style int

const (
	StyleNormal Style = iota
	StyleEmotional
	StyleStorytelling
	StyleNews
)

var styleNames = [...]string{
	"Normal",
	"Emotional",
	"Storytelling",
	"News Style",
}

// styleDetails 是写进合成提示词里的风格说明。
var styleDetails = [...]string{
	"Clear conversational Hindi.",
	"Perform with deep resonance.",
	"Dramatic narrative pauses.",
	"Fast authoritative news delivery.",
}

func (s Style) String() string {
	if s >= 0 && int(s) < len(styleNames) {
		return styleNames[s]
	}
	return "Unknown"
}

// Detail 返回风格的提示词描述，未知风格按 Normal 处理。
func (s Style) Detail() string {
	if s >= 0 && int(s) < len(styleDetails) {
		return styleDetails[s]
	}
	return styleDetails[StyleNormal]
}

// ParseStyle 解析风格名称，大小写、空格和下划线不敏感。
func ParseStyle(name string) (Style, error) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(name))
	switch key {
	case "", "normal":
		return StyleNormal, nil
	case "emotional":
		return StyleEmotional, nil
	case "storytelling", "story":
		return StyleStorytelling, nil
	case "newsstyle", "news":
		return StyleNews, nil
	}
	return StyleNormal, fmt.Errorf("未知的朗读风格: %q", name)
}

// Styles 返回全部风格。
func Styles() []Style {
	return []Style{StyleNormal, StyleEmotional, StyleStorytelling, StyleNews}
}

// ErrNoAudio 表示合成服务没有返回音频数据。
var ErrNoAudio = errors.New("未收到音频数据")

// SynthesisError 表示一次远端或本地合成调用失败（网络、鉴权、配额、响应格式等）。
type SynthesisError struct {
	Engine string
	Err    error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("[tts] %s 合成失败: %v", e.Engine, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// TimeoutError 表示单次合成超过了时限，总是包在 SynthesisError 里返回。
type TimeoutError struct {
	Engine string
	After  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s 合成超时 (%v)", e.Engine, e.After)
}

// Timeout 供 net.Error 风格的判断使用。
func (e *TimeoutError) Timeout() bool { return true }

// IsTimeout 判断 err 链上是否有 TimeoutError。
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// TimedEngine 为每次调用加上时限，并把所有失败统一为 *SynthesisError。
type TimedEngine struct {
	inner   Engine
	timeout time.Duration
}

// WithTimeout 包装 e；timeout <= 0 表示不限时。
func WithTimeout(e Engine, timeout time.Duration) *TimedEngine {
	return &TimedEngine{inner: e, timeout: timeout}
}

func (t *TimedEngine) Name() string { return t.inner.Name() }

func (t *TimedEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	pcm, err := t.inner.Synthesize(callCtx, req)
	if err == nil && len(pcm) == 0 {
		err = ErrNoAudio
	}
	if err == nil {
		return pcm, nil
	}

	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, &SynthesisError{Engine: t.Name(), Err: &TimeoutError{Engine: t.Name(), After: t.timeout}}
	}
	var se *SynthesisError
	if errors.As(err, &se) {
		return nil, err
	}
	return nil, &SynthesisError{Engine: t.Name(), Err: err}
}
