package tts

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubEngine struct {
	pcm   []byte
	err   error
	delay time.Duration
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Synthesize(ctx context.Context, _ Request) ([]byte, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.pcm, s.err
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in   string
		want Style
	}{
		{"", StyleNormal},
		{"Normal", StyleNormal},
		{"emotional", StyleEmotional},
		{"Storytelling", StyleStorytelling},
		{"News Style", StyleNews},
		{"news_style", StyleNews},
		{"NEWS", StyleNews},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if err != nil {
			t.Errorf("ParseStyle(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStyle(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseStyle("whisper"); err == nil {
		t.Error("expected error for unknown style")
	}
}

func TestStyle_StringAndDetail(t *testing.T) {
	if StyleNews.String() != "News Style" {
		t.Errorf("StyleNews.String() = %q", StyleNews.String())
	}
	if Style(99).String() != "Unknown" {
		t.Errorf("Style(99).String() = %q", Style(99).String())
	}
	if Style(99).Detail() != StyleNormal.Detail() {
		t.Error("unknown style should fall back to Normal detail")
	}
	seen := map[string]bool{}
	for _, s := range Styles() {
		if seen[s.Detail()] {
			t.Errorf("duplicate detail for %s", s)
		}
		seen[s.Detail()] = true
	}
}

func TestTimedEngine_Success(t *testing.T) {
	e := WithTimeout(&stubEngine{pcm: []byte{1, 0}}, time.Second)
	pcm, err := e.Synthesize(context.Background(), Request{Text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pcm) != 2 {
		t.Errorf("len = %d, want 2", len(pcm))
	}
}

func TestTimedEngine_Timeout(t *testing.T) {
	e := WithTimeout(&stubEngine{pcm: []byte{1, 0}, delay: time.Second}, 20*time.Millisecond)
	_, err := e.Synthesize(context.Background(), Request{Text: "hi"})

	var se *SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SynthesisError, got %T: %v", err, err)
	}
	if !IsTimeout(err) {
		t.Errorf("expected TimeoutError in chain: %v", err)
	}
}

func TestTimedEngine_WrapsFailures(t *testing.T) {
	boom := errors.New("quota exceeded")
	tests := []struct {
		name string
		eng  *stubEngine
		want error
	}{
		{"plain error", &stubEngine{err: boom}, boom},
		{"empty audio", &stubEngine{}, ErrNoAudio},
	}
	for _, tt := range tests {
		_, err := WithTimeout(tt.eng, 0).Synthesize(context.Background(), Request{})
		var se *SynthesisError
		if !errors.As(err, &se) {
			t.Errorf("%s: expected *SynthesisError, got %v", tt.name, err)
			continue
		}
		if se.Engine != "stub" {
			t.Errorf("%s: engine = %q", tt.name, se.Engine)
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v in chain", tt.name, err, tt.want)
		}
		if IsTimeout(err) {
			t.Errorf("%s: should not be a timeout", tt.name)
		}
	}
}

func TestTimedEngine_ParentCancelIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WithTimeout(&stubEngine{delay: time.Second}, time.Minute).Synthesize(ctx, Request{})
	if IsTimeout(err) {
		t.Error("parent cancellation reported as timeout")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
}
