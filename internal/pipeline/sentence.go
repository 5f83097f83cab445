package pipeline

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars 是单段文本的默认上限（字符数）。
const DefaultMaxChars = 500

// sentenceEnders 断句符号：英文标点、竖线、换行，
// 天城文单/双竖线（। ॥），以及中文句末标点。
var sentenceEnders = []rune{'.', '?', '!', '|', '\n', '।', '॥', '。', '！', '？'}

// ChunkingError 表示输入文本无法分段，目前只有非法 UTF-8 会触发。
type ChunkingError struct {
	Offset int // 第一个非法字节的位置
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("文本分段失败: 第 %d 字节处不是合法的 UTF-8", e.Offset)
}

func isSentenceEnder(r rune) bool {
	for _, ender := range sentenceEnders {
		if r == ender {
			return true
		}
	}
	return false
}

// extractSentence 从 text 中提取第一个完整句子（含句末标点），
// 返回句子、剩余文本以及是否找到句末标点。句子不做 trim。
func extractSentence(text string) (string, string, bool) {
	for i, r := range text {
		if isSentenceEnder(r) {
			splitAt := i + utf8.RuneLen(r)
			return text[:splitAt], text[splitAt:], true
		}
	}
	return "", text, false
}

// SplitChunks 将文本按句切分，再把相邻句子合并为不超过 maxChars 个字符的段。
// 单个句子本身超长时整句成段，不在词中间截断。
// 空文本或只有空白时返回零段。maxChars <= 0 时使用 DefaultMaxChars。
func SplitChunks(text string, maxChars int) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, &ChunkingError{Offset: invalidOffset(text)}
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var chunks []string
	var current strings.Builder
	// currentLen 不计当前段开头的空白，与 trim 后的长度一致
	currentLen := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		currentLen = 0
	}

	remaining := text
	for remaining != "" {
		sentence, rest, found := extractSentence(remaining)
		if !found {
			sentence, rest = remaining, ""
		}
		remaining = rest

		n := utf8.RuneCountInString(sentence)
		if currentLen == 0 {
			n = utf8.RuneCountInString(strings.TrimLeftFunc(sentence, unicode.IsSpace))
		}
		// 追加后超限，先刷出当前段
		if currentLen > 0 && currentLen+n > maxChars {
			flush()
			n = utf8.RuneCountInString(strings.TrimLeftFunc(sentence, unicode.IsSpace))
		}
		current.WriteString(sentence)
		currentLen += n
	}
	flush()

	return chunks, nil
}

func invalidOffset(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(s)
}
