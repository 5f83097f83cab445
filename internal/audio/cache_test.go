package audio

import (
	"fmt"
	"sync"
	"testing"
)

func TestNewKey_Normalizes(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"case", "Namaste World", "namaste world"},
		{"trim", "  नमस्ते।\n", "नमस्ते।"},
		// "é" 预组合形式与 e + 组合重音符
		{"nfc", "caf\u00e9", "cafe\u0301"},
	}
	for _, tt := range tests {
		ka := NewKey("arjun", "Normal", tt.a)
		kb := NewKey("arjun", "Normal", tt.b)
		if ka != kb {
			t.Errorf("%s: keys differ: %+v vs %+v", tt.name, ka, kb)
		}
		if ka.Fingerprint() != kb.Fingerprint() {
			t.Errorf("%s: fingerprints differ", tt.name)
		}
	}
}

func TestNewKey_DistinguishesVoiceAndStyle(t *testing.T) {
	base := NewKey("arjun", "Normal", "hello")
	others := []Key{
		NewKey("vikram", "Normal", "hello"),
		NewKey("arjun", "Emotional", "hello"),
		NewKey("arjun", "Normal", "hello!"),
	}
	for _, k := range others {
		if k == base || k.Fingerprint() == base.Fingerprint() {
			t.Errorf("key %+v collides with %+v", k, base)
		}
	}
}

func TestFingerprint_FieldBoundaries(t *testing.T) {
	a := Key{Voice: "ab", Style: "c", Text: "d"}
	b := Key{Voice: "a", Style: "bc", Text: "d"}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("fingerprint should separate fields")
	}
}

func TestBufferCache_GetPut(t *testing.T) {
	c := NewBufferCache()
	k := NewKey("arjun", "Normal", "hello")

	if _, ok := c.Get(k); ok {
		t.Fatal("expected miss on empty cache")
	}

	b := NewSilence(24000, 1, 10)
	c.Put(k, b)
	got, ok := c.Get(k)
	if !ok || got != b {
		t.Fatal("expected hit returning the same buffer")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestBufferCache_Concurrent(t *testing.T) {
	c := NewBufferCache()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := NewKey("arjun", "Normal", fmt.Sprintf("chunk %d", i%8))
			c.Put(k, NewSilence(24000, 1, 1))
			c.Get(k)
		}(i)
	}
	wg.Wait()
	if c.Len() != 8 {
		t.Errorf("Len = %d, want 8", c.Len())
	}
}
