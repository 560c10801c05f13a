// internal/llm/ollama/ollama_test.go
package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quantflow/cryptoresearch/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_DefaultEndpoint(t *testing.T) {
	p, err := New("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.endpoint != "http://localhost:11434" {
		t.Errorf("expected default endpoint http://localhost:11434, got %s", p.endpoint)
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != "qwen2.5:32b" {
		t.Errorf("expected default model qwen2.5:32b, got %s", p.model)
	}
	if p.Name() != "ollama" {
		t.Errorf("unexpected name: %s", p.Name())
	}
}

func TestNew_CustomValues(t *testing.T) {
	p, err := New("http://custom:8080", "llama3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.endpoint != "http://custom:8080" {
		t.Errorf("expected custom endpoint, got %s", p.endpoint)
	}
	if p.model != "llama3" {
		t.Errorf("expected custom model, got %s", p.model)
	}
}

func TestComplete(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llama3",
			Message:         ollamaMessage{Role: "assistant", Content: "analysis text"},
			Done:            true,
			DoneReason:      "stop",
			PromptEvalCount: 120,
			EvalCount:       80,
		})
	}))
	defer srv.Close()

	p, err := New(srv.URL, "llama3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "be terse",
		Prompt:       "summarize BTC",
		MaxTokens:    512,
		Temperature:  0.3,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Content != "analysis text" {
		t.Errorf("unexpected content: %s", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("unexpected finish reason: %s", resp.FinishReason)
	}
	if resp.Usage.InputTokens != 120 || resp.Usage.OutputTokens != 80 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}

	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.Options.NumPredict != 512 {
		t.Errorf("expected num_predict 512, got %d", got.Options.NumPredict)
	}
	if got.Options.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %f", got.Options.Temperature)
	}
	if got.Stream {
		t.Error("expected streaming disabled")
	}
}

func TestComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p, err := New(srv.URL, "llama3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := p.Complete(context.Background(), llm.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Error("expected error on non-200 response")
	}
}
