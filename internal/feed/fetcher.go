// Package feed 从 RSS/Atom 订阅源抓取条目，作为合成文本的来源。
package feed

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"github.com/iabetor/voxstudio/internal/logger"
)

const (
	defaultMaxItems     = 5
	defaultFetchTimeout = 10 * time.Second
	maxSummaryLen       = 400 // 摘要最大字符数
)

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&apos;", "'",
	)
)

// Item 订阅源条目。
type Item struct {
	Title     string
	Summary   string
	Link      string
	Published time.Time
}

// Text 返回适合朗读的文本：标题成句后接摘要。
func (it Item) Text() string {
	title := strings.TrimSpace(it.Title)
	if title != "" && !endsSentence(title) {
		title += "।"
	}
	if it.Summary == "" {
		return title
	}
	if title == "" {
		return it.Summary
	}
	return title + " " + it.Summary
}

func endsSentence(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return strings.ContainsRune(".?!|।॥。！？", r)
}

// Feed 是抓取结果。
type Feed struct {
	Title string
	Items []Item
}

// Script 把所有条目拼成一段朗读稿，每条一行。
func (f *Feed) Script() string {
	lines := make([]string, 0, len(f.Items))
	for _, it := range f.Items {
		if s := it.Text(); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

// Fetcher 负责抓取订阅源。
type Fetcher struct {
	parser   *gofeed.Parser
	client   *http.Client
	maxItems int
}

// NewFetcher 创建抓取器，timeout 与 maxItems 为 0 时使用默认值。
func NewFetcher(timeout time.Duration, maxItems int) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	return &Fetcher{
		parser:   gofeed.NewParser(),
		client:   &http.Client{Timeout: timeout},
		maxItems: maxItems,
	}
}

// Fetch 抓取 url 并返回按发布时间倒序的最新条目。
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "voxstudio/1.0 RSS Reader")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("抓取 %s 失败: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("抓取 %s 失败: HTTP %d", url, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("无法解析该 RSS 地址: %w", err)
	}

	out := &Feed{Title: parsed.Title, Items: convertItems(parsed)}
	if out.Title == "" {
		out.Title = url
	}
	if len(out.Items) > f.maxItems {
		out.Items = out.Items[:f.maxItems]
	}
	logger.Infof("[feed] %s: 获取 %d 条", out.Title, len(out.Items))
	return out, nil
}

// convertItems 将 gofeed 条目转换为 Item，按发布时间倒序。
func convertItems(feed *gofeed.Feed) []Item {
	items := make([]Item, 0, len(feed.Items))
	for _, gItem := range feed.Items {
		summary := gItem.Description
		if summary == "" {
			summary = gItem.Content
		}
		summary = truncate(stripHTML(summary), maxSummaryLen)

		var published time.Time
		if gItem.PublishedParsed != nil {
			published = *gItem.PublishedParsed
		} else if gItem.UpdatedParsed != nil {
			published = *gItem.UpdatedParsed
		}

		items = append(items, Item{
			Title:     stripHTML(gItem.Title),
			Summary:   summary,
			Link:      gItem.Link,
			Published: published,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
	return items
}

// stripHTML 剥离 HTML 标签，只保留纯文本。
func stripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// truncate 截断字符串到指定字符数（按 UTF-8 字符计算）。
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
