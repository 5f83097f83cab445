package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// 播放速率允许的范围。
const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// Config 是 voxstudio 的顶层配置结构。
type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Playback  PlaybackConfig  `yaml:"playback"`
	History   HistoryConfig   `yaml:"history"`
	Export    ExportConfig    `yaml:"export"`
	Translate TranslateConfig `yaml:"translate"`
	Feed      FeedConfig      `yaml:"feed"`
	Log       LogConfig       `yaml:"log"`
}

// AudioConfig 流水线音频格式，一次运行内固定。
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
}

// ChunkerConfig 文本分段配置。
type ChunkerConfig struct {
	MaxChars int `yaml:"max_chars"`
}

// SynthesisConfig 语音合成配置。
type SynthesisConfig struct {
	Engine string `yaml:"engine"` // gemini, edge, tencent, piper, say, sherpa
	// Timeout 单段合成时限（秒）。
	Timeout int `yaml:"timeout"`
	// SecondsPerChunk 估算剩余时间时每段的秒数。
	SecondsPerChunk float64 `yaml:"seconds_per_chunk"`
	Voice           string  `yaml:"voice"`
	Style           string  `yaml:"style"`

	Gemini  GeminiConfig  `yaml:"gemini"`
	Edge    EdgeConfig    `yaml:"edge"`
	Tencent TencentConfig `yaml:"tencent"`
	Piper   PiperConfig   `yaml:"piper"`
	Say     SayConfig     `yaml:"say"`
	Sherpa  SherpaConfig  `yaml:"sherpa"`
}

// GeminiConfig Gemini TTS 配置。
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// EdgeConfig Edge TTS 配置。Voices 把音色 ID 映射为 Edge 音色名。
type EdgeConfig struct {
	Voice  string            `yaml:"voice"`
	Voices map[string]string `yaml:"voices"`
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string           `yaml:"secret_id"`
	SecretKey string           `yaml:"secret_key"`
	Region    string           `yaml:"region"`
	VoiceType int64            `yaml:"voice_type"`
	Voices    map[string]int64 `yaml:"voices"`
	Speed     float64          `yaml:"speed"`
}

// PiperConfig Piper 离线 TTS 配置。
type PiperConfig struct {
	ModelPath string         `yaml:"model_path"`
	Speakers  map[string]int `yaml:"speakers"`
}

// SayConfig macOS say 配置。
type SayConfig struct {
	Voice  string            `yaml:"voice"`
	Voices map[string]string `yaml:"voices"`
}

// SherpaConfig sherpa-onnx 离线 TTS 配置。
type SherpaConfig struct {
	ModelPath  string         `yaml:"model_path"` // 模型目录，内含 model.onnx / lexicon.txt / tokens.txt
	NumThreads int            `yaml:"num_threads"`
	Speakers   map[string]int `yaml:"speakers"`
}

// PlaybackConfig 播放配置。
type PlaybackConfig struct {
	// Mute 为 true 时不打开音频设备，只生成并导出。
	Mute  bool    `yaml:"mute"`
	Speed float64 `yaml:"speed"`
}

// HistoryConfig 历史记录配置。
type HistoryConfig struct {
	DBPath string `yaml:"db_path"`
	// PreviewChars 列表中显示的文本长度（字符）。
	PreviewChars int `yaml:"preview_chars"`
}

// ExportConfig 导出音频的存储配置。
type ExportConfig struct {
	Store   string `yaml:"store"` // local 或 nats
	Dir     string `yaml:"dir"`
	NatsURL string `yaml:"nats_url"`
	Bucket  string `yaml:"bucket"`
}

// TranslateConfig 合成前的翻译配置（腾讯云机器翻译）。
type TranslateConfig struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Source    string `yaml:"source"`
	Target    string `yaml:"target"`
}

// FeedConfig RSS 文本来源配置。
type FeedConfig struct {
	Timeout  int `yaml:"timeout"` // 秒
	MaxItems int `yaml:"max_items"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	// 展开环境变量，如 ${GEMINI_API_KEY}
	expanded := os.Expand(string(data), os.Getenv)

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回只含默认值的配置，配置文件不存在时使用。
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Validate 检查配置取值是否合法。
func (c *Config) Validate() error {
	switch c.Synthesis.Engine {
	case "gemini", "edge", "tencent", "piper", "say", "sherpa":
	default:
		return fmt.Errorf("未知的合成引擎: %q", c.Synthesis.Engine)
	}
	switch c.Export.Store {
	case "local", "nats":
	default:
		return fmt.Errorf("未知的导出存储: %q", c.Export.Store)
	}
	if c.Audio.Channels != 1 {
		return fmt.Errorf("合成服务只输出单声道，audio.channels 必须为 1，实际 %d", c.Audio.Channels)
	}
	return nil
}

// ClampSpeed 把播放速率限制在 [MinSpeed, MaxSpeed]。
func ClampSpeed(v float64) float64 {
	if v < MinSpeed {
		return MinSpeed
	}
	if v > MaxSpeed {
		return MaxSpeed
	}
	return v
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Audio.SampleRate == 0 {
		cfg.Audio.SampleRate = 24000
	}
	if cfg.Audio.Channels == 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Chunker.MaxChars == 0 {
		cfg.Chunker.MaxChars = 500
	}

	s := &cfg.Synthesis
	if s.Engine == "" {
		s.Engine = "gemini"
	}
	if s.Timeout == 0 {
		s.Timeout = 60
	}
	if s.SecondsPerChunk == 0 {
		s.SecondsPerChunk = 1
	}
	if s.Voice == "" {
		s.Voice = "arjun"
	}
	if s.Style == "" {
		s.Style = "Normal"
	}
	if s.Edge.Voice == "" {
		s.Edge.Voice = "hi-IN-MadhurNeural"
	}
	if s.Tencent.Speed == 0 {
		s.Tencent.Speed = 1.0
	}
	if s.Sherpa.NumThreads == 0 {
		s.Sherpa.NumThreads = 2
	}

	if cfg.Playback.Speed == 0 {
		cfg.Playback.Speed = 1.0
	}
	cfg.Playback.Speed = ClampSpeed(cfg.Playback.Speed)

	dataDir := defaultDataDir()
	if cfg.History.DBPath == "" {
		cfg.History.DBPath = filepath.Join(dataDir, "voxstudio.db")
	}
	cfg.History.DBPath = expandHome(cfg.History.DBPath)
	if cfg.History.PreviewChars == 0 {
		cfg.History.PreviewChars = 80
	}

	if cfg.Export.Store == "" {
		cfg.Export.Store = "local"
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = filepath.Join(dataDir, "exports")
	}
	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	if cfg.Export.Bucket == "" {
		cfg.Export.Bucket = "voxstudio-audio"
	}

	if cfg.Translate.Region == "" {
		cfg.Translate.Region = "ap-guangzhou"
	}
	if cfg.Translate.Target == "" {
		cfg.Translate.Target = "hi"
	}
	if cfg.Translate.Source == "" {
		cfg.Translate.Source = "auto"
	}

	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 10
	}
	if cfg.Feed.MaxItems == 0 {
		cfg.Feed.MaxItems = 5
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// 去除密钥两端可能的空白（环境变量展开后常见）
	s.Gemini.APIKey = strings.TrimSpace(s.Gemini.APIKey)
	s.Tencent.SecretID = strings.TrimSpace(s.Tencent.SecretID)
	s.Tencent.SecretKey = strings.TrimSpace(s.Tencent.SecretKey)
}

func defaultDataDir() string {
	if home, _ := os.UserHomeDir(); home != "" {
		return filepath.Join(home, ".voxstudio")
	}
	return "./.voxstudio-data"
}

// expandHome 展开以 ~/ 开头的路径，Go 不会自动处理。
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	if home, _ := os.UserHomeDir(); home != "" {
		return filepath.Join(home, p[2:])
	}
	return p
}
