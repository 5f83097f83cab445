// Package translate 在合成前把文本翻译成目标语言（腾讯云机器翻译）。
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"

	"github.com/iabetor/voxstudio/internal/logger"
)

// maxRequestChars 单次请求的文本上限，超出时按行分批翻译。
const maxRequestChars = 2000

// textTranslator 是 tmt.Client 中用到的部分，便于测试替换。
type textTranslator interface {
	TextTranslateWithContext(ctx context.Context, request *tmt.TextTranslateRequest) (*tmt.TextTranslateResponse, error)
}

// Translator 腾讯云机器翻译客户端。
type Translator struct {
	client textTranslator
	source string
	target string
}

// Config 翻译配置。
type Config struct {
	SecretID  string
	SecretKey string
	Region    string
	Source    string // 为空时自动检测
	Target    string
}

// 语言名称到腾讯云代码的映射
var langCodeMap = map[string]string{
	"hindi":   "hi",
	"印地语":     "hi",
	"english": "en",
	"英语":      "en",
	"英文":      "en",
	"chinese": "zh",
	"中文":      "zh",
	"汉语":      "zh",
	"japanese": "ja",
	"日语":       "ja",
}

// LangCode 把语言名称转换为腾讯云语言代码，未知名称原样返回。
func LangCode(name string) string {
	name = strings.TrimSpace(name)
	if code, ok := langCodeMap[strings.ToLower(name)]; ok {
		return code
	}
	return name
}

// New 创建翻译客户端。
func New(cfg Config) (*Translator, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("[translate] 需要 SecretID 和 SecretKey")
	}
	if cfg.Region == "" {
		cfg.Region = "ap-guangzhou"
	}
	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tmt.tencentcloudapi.com"

	client, err := tmt.NewClient(credential, cfg.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建翻译客户端失败: %w", err)
	}
	return newWithClient(client, cfg.Source, cfg.Target), nil
}

func newWithClient(client textTranslator, source, target string) *Translator {
	source = LangCode(source)
	if source == "" {
		source = "auto"
	}
	target = LangCode(target)
	if target == "" {
		target = "hi"
	}
	return &Translator{client: client, source: source, target: target}
}

// Translate 翻译 text。长文本按行分批，结果保持原有的换行。
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	var out []string
	for _, batch := range batches(text, maxRequestChars) {
		if strings.TrimSpace(batch) == "" {
			out = append(out, batch)
			continue
		}
		result, err := t.translateOne(ctx, batch)
		if err != nil {
			return "", err
		}
		out = append(out, result)
	}
	return strings.Join(out, "\n"), nil
}

func (t *Translator) translateOne(ctx context.Context, text string) (string, error) {
	request := tmt.NewTextTranslateRequest()
	request.SourceText = common.StringPtr(text)
	request.Source = common.StringPtr(t.source)
	request.Target = common.StringPtr(t.target)
	request.ProjectId = common.Int64Ptr(0)

	response, err := t.client.TextTranslateWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("翻译请求失败: %w", err)
	}
	if response == nil || response.Response == nil || response.Response.TargetText == nil {
		return "", fmt.Errorf("翻译响应为空")
	}

	detected := t.source
	if response.Response.Source != nil {
		detected = *response.Response.Source
	}
	logger.Debugf("[translate] %s -> %s, %d 字符", detected, t.target, len([]rune(text)))
	return *response.Response.TargetText, nil
}

// batches 按行把 text 分成不超过 limit 个字符的批次；单行超长时单独成批。
func batches(text string, limit int) []string {
	lines := strings.Split(text, "\n")
	var (
		out     []string
		current []string
		size    int
	)
	for _, line := range lines {
		n := len([]rune(line)) + 1
		if len(current) > 0 && size+n > limit {
			out = append(out, strings.Join(current, "\n"))
			current, size = nil, 0
		}
		current = append(current, line)
		size += n
	}
	if len(current) > 0 {
		out = append(out, strings.Join(current, "\n"))
	}
	return out
}
