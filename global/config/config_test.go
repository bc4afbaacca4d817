package config

import "testing"

func TestLoadTrimsCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example ,")
	cfg := Load()
	want := []string{"http://a.example", "http://b.example"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("origins = %q", cfg.CORSOrigins)
	}
	for i, o := range want {
		if cfg.CORSOrigins[i] != o {
			t.Fatalf("origin %d = %q, want %q", i, cfg.CORSOrigins[i], o)
		}
	}
}

func TestSplitOriginsSingle(t *testing.T) {
	got := splitOrigins("http://a.example")
	if len(got) != 1 || got[0] != "http://a.example" {
		t.Fatalf("origins = %q", got)
	}
}
