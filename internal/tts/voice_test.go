package tts

import "testing"

func TestVoices_Catalog(t *testing.T) {
	voices := Voices()
	if len(voices) != 13 {
		t.Fatalf("len = %d, want 13", len(voices))
	}

	ids := map[string]bool{}
	recommended := 0
	for _, v := range voices {
		if ids[v.ID] {
			t.Errorf("duplicate id %q", v.ID)
		}
		ids[v.ID] = true
		if v.ProviderVoice == "" || v.Persona == "" {
			t.Errorf("voice %q missing provider voice or persona", v.ID)
		}
		if v.Recommended {
			recommended++
		}
	}
	if recommended != 4 {
		t.Errorf("recommended = %d, want 4", recommended)
	}
	if voices[len(voices)-1].ID != "ananya" {
		t.Errorf("last voice = %q, want ananya", voices[len(voices)-1].ID)
	}
}

func TestLookupVoice(t *testing.T) {
	v, ok := LookupVoice(" Kabir ")
	if !ok || v.ProviderVoice != "Zephyr" {
		t.Errorf("LookupVoice(kabir) = %+v, %v", v, ok)
	}
	if _, ok := LookupVoice("nobody"); ok {
		t.Error("expected miss for unknown id")
	}
	if DefaultVoice().ID != "arjun" {
		t.Errorf("default voice = %q", DefaultVoice().ID)
	}
}

func TestVoice_Slug(t *testing.T) {
	v, _ := LookupVoice("arjun")
	if got := v.Slug(); got != "arjun-(studio-news)" {
		t.Errorf("Slug() = %q", got)
	}
}
