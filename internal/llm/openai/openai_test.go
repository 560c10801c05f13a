package openai

import "testing"

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New("", ""); err == nil {
		t.Error("expected error without API key")
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != "gpt-4o" {
		t.Errorf("unexpected default model: %s", p.model)
	}
	if p.Name() != "openai" {
		t.Errorf("unexpected name: %s", p.Name())
	}
}
