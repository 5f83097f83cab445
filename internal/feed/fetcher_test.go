package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>समाचार</title>
    <link>https://example.com</link>
    <description>A test RSS feed</description>
    <item>
      <title>पुरानी खबर</title>
      <link>https://example.com/post/3</link>
      <description>पुराना</description>
      <pubDate>Thu, 19 Feb 2026 06:00:00 +0530</pubDate>
    </item>
    <item>
      <title>ताज़ा खबर</title>
      <link>https://example.com/post/1</link>
      <description>&lt;p&gt;आज की &lt;b&gt;मुख्य&lt;/b&gt; खबर।&lt;/p&gt;</description>
      <pubDate>Thu, 19 Feb 2026 08:00:00 +0530</pubDate>
    </item>
    <item>
      <title>Question?</title>
      <link>https://example.com/post/2</link>
      <description>Answer &amp; more</description>
      <pubDate>Thu, 19 Feb 2026 07:00:00 +0530</pubDate>
    </item>
  </channel>
</rss>`

const testAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Blog</title>
  <entry>
    <title>Atom entry</title>
    <link href="https://example.com/atom/1"/>
    <summary>Atom summary</summary>
    <updated>2026-02-19T09:00:00+08:00</updated>
  </entry>
</feed>`

func setupTestServer(content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, content)
	}))
}

func TestFetch_RSS(t *testing.T) {
	srv := setupTestServer(testRSSFeed)
	defer srv.Close()

	f, err := NewFetcher(time.Second, 10).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch 失败: %v", err)
	}
	if f.Title != "समाचार" {
		t.Errorf("标题不匹配: %s", f.Title)
	}
	if len(f.Items) != 3 {
		t.Fatalf("条目数 = %d, 期望 3", len(f.Items))
	}
	// 按发布时间倒序
	if f.Items[0].Title != "ताज़ा खबर" || f.Items[2].Title != "पुरानी खबर" {
		t.Errorf("排序错误: %q, %q", f.Items[0].Title, f.Items[2].Title)
	}
	if f.Items[0].Summary != "आज की मुख्य खबर।" {
		t.Errorf("HTML 未剥离: %q", f.Items[0].Summary)
	}
	if f.Items[1].Summary != "Answer & more" {
		t.Errorf("实体未解码: %q", f.Items[1].Summary)
	}
}

func TestFetch_Atom(t *testing.T) {
	srv := setupTestServer(testAtomFeed)
	defer srv.Close()

	f, err := NewFetcher(0, 0).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch 失败: %v", err)
	}
	if len(f.Items) != 1 || f.Items[0].Summary != "Atom summary" {
		t.Errorf("Atom 解析结果: %+v", f.Items)
	}
	if f.Items[0].Published.IsZero() {
		t.Error("应使用 updated 作为发布时间")
	}
}

func TestFetch_MaxItems(t *testing.T) {
	srv := setupTestServer(testRSSFeed)
	defer srv.Close()

	f, err := NewFetcher(time.Second, 2).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Items) != 2 {
		t.Errorf("条目数 = %d, 期望 2", len(f.Items))
	}
}

func TestFetch_Errors(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not xml")
	}))
	defer bad.Close()
	if _, err := NewFetcher(time.Second, 5).Fetch(context.Background(), bad.URL); err == nil {
		t.Error("非法内容应返回错误")
	}

	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()
	if _, err := NewFetcher(time.Second, 5).Fetch(context.Background(), notFound.URL); err == nil {
		t.Error("404 应返回错误")
	}
}

func TestScript(t *testing.T) {
	f := &Feed{Items: []Item{
		{Title: "शीर्षक", Summary: "सारांश।"},
		{Title: "Done.", Summary: ""},
		{Title: "", Summary: "only summary"},
		{},
	}}
	want := "शीर्षक। सारांश।\nDone.\nonly summary"
	if got := f.Script(); got != want {
		t.Errorf("Script =\n%q\nwant\n%q", got, want)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct{ in, want string }{
		{"<p>Hello <b>World</b></p>", "Hello World"},
		{"a&nbsp;&amp;&nbsp;b", "a & b"},
		{"  multi \n\n space  ", "multi space"},
	}
	for _, tt := range tests {
		if got := stripHTML(tt.in); got != tt.want {
			t.Errorf("stripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate(strings.Repeat("क", 10), 4); got != "कककक..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}
