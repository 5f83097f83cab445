package audio

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/iabetor/voxstudio/internal/logger"
)

// Key 是合成结果的内容指纹：(音色, 风格, 规范化文本)。
type Key struct {
	Voice string
	Style string
	Text  string
}

// NewKey 构造缓存键。文本经 NFC 规范化、去首尾空白并转小写，
// 保证同一段话的不同 Unicode 组合形式命中同一条目。
func NewKey(voice, style, text string) Key {
	return Key{
		Voice: voice,
		Style: style,
		Text:  strings.ToLower(strings.TrimSpace(norm.NFC.String(text))),
	}
}

// Fingerprint 返回键的 sha256 十六进制摘要，用于日志和导出元数据。
func (k Key) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(k.Voice))
	h.Write([]byte{0})
	h.Write([]byte(k.Style))
	h.Write([]byte{0})
	h.Write([]byte(k.Text))
	return hex.EncodeToString(h.Sum(nil))
}

// BufferCache 在进程生命周期内缓存解码后的合成结果。
// 不做淘汰；同一键并发写入时后写者覆盖，内容是确定的所以无害。
type BufferCache struct {
	mu      sync.RWMutex
	entries map[Key]*Buffer
}

// NewBufferCache 创建空缓存，每个应用会话一个实例。
func NewBufferCache() *BufferCache {
	return &BufferCache{entries: make(map[Key]*Buffer)}
}

// Get 查找缓存。
func (c *BufferCache) Get(k Key) (*Buffer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.entries[k]
	return b, ok
}

// Put 写入缓存。
func (c *BufferCache) Put(k Key, b *Buffer) {
	c.mu.Lock()
	c.entries[k] = b
	n := len(c.entries)
	c.mu.Unlock()
	logger.Debugf("[cache] 已缓存 %s (%.2fs)，共 %d 条", k.Fingerprint()[:12], b.Seconds(), n)
}

// Len 返回缓存条目数。
func (c *BufferCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
