package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"
)

// fakeClient 把输入转成大写并记录请求。
type fakeClient struct {
	requests []*tmt.TextTranslateRequest
	err      error
}

func (f *fakeClient) TextTranslateWithContext(_ context.Context, req *tmt.TextTranslateRequest) (*tmt.TextTranslateResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	resp := tmt.NewTextTranslateResponse()
	resp.Response = &tmt.TextTranslateResponseParams{
		TargetText: common.StringPtr(strings.ToUpper(*req.SourceText)),
		Source:     common.StringPtr("en"),
		Target:     req.Target,
	}
	return resp, nil
}

func TestTranslate(t *testing.T) {
	fc := &fakeClient{}
	tr := newWithClient(fc, "", "Hindi")

	got, err := tr.Translate(context.Background(), "hello\nworld")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "HELLO\nWORLD" {
		t.Errorf("Translate = %q", got)
	}
	if len(fc.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(fc.requests))
	}
	req := fc.requests[0]
	if *req.Source != "auto" || *req.Target != "hi" {
		t.Errorf("source/target = %s/%s", *req.Source, *req.Target)
	}
}

func TestTranslate_Empty(t *testing.T) {
	fc := &fakeClient{}
	got, err := newWithClient(fc, "en", "hi").Translate(context.Background(), "  ")
	if err != nil || got != "  " {
		t.Errorf("Translate(blank) = %q, %v", got, err)
	}
	if len(fc.requests) != 0 {
		t.Error("blank text should not call the API")
	}
}

func TestTranslate_Error(t *testing.T) {
	fc := &fakeClient{err: errors.New("auth failure")}
	if _, err := newWithClient(fc, "en", "hi").Translate(context.Background(), "x"); err == nil {
		t.Error("expected error")
	}
}

func TestTranslate_BatchesLongText(t *testing.T) {
	fc := &fakeClient{}
	line := strings.Repeat("a", 1500)
	text := line + "\n" + line + "\n" + line

	got, err := newWithClient(fc, "en", "hi").Translate(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.requests) != 3 {
		t.Errorf("expected 3 requests, got %d", len(fc.requests))
	}
	if got != strings.ToUpper(text) {
		t.Error("batched result should preserve line breaks")
	}
}

func TestBatches(t *testing.T) {
	got := batches("ab\ncd\nef", 6)
	want := []string{"ab\ncd", "ef"}
	if len(got) != len(want) {
		t.Fatalf("batches = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("batch %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLangCode(t *testing.T) {
	tests := map[string]string{"Hindi": "hi", "英语": "en", "fr": "fr", "": ""}
	for in, want := range tests {
		if got := LangCode(in); got != want {
			t.Errorf("LangCode(%q) = %q, want %q", in, got, want)
		}
	}
}
