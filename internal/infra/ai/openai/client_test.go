package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newProvider(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeSuccess(t *testing.T) {
	const text = `{"animal_type":"Cat","severity":"Low"}`
	calls := 0
	srv := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "data:image/jpeg;base64,") {
			t.Errorf("request missing base64 image: %s", body)
		}
		if !strings.Contains(string(body), "animal_type") {
			t.Errorf("request missing prompt schema")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": text}}},
		})
	})

	c := NewClient(Config{APIKey: "test-key", Model: "gemini-1.5-flash", BaseURL: srv.URL + "/v1/"})
	res := c.Analyze(context.Background(), []byte{0xff, 0xd8, 0xff})
	if !res.OK {
		t.Fatalf("expected success, got failure %q", res.Message)
	}
	if res.Text != text {
		t.Fatalf("text = %q", res.Text)
	}
	if calls != 1 {
		t.Fatalf("provider called %d times, want 1", calls)
	}
}

func TestAnalyzeProviderError(t *testing.T) {
	calls := 0
	srv := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	})

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL + "/v1"})
	res := c.Analyze(context.Background(), []byte("img"))
	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Message != "quota exceeded" {
		t.Fatalf("message = %q", res.Message)
	}
	if calls != 1 {
		t.Fatalf("provider called %d times, no retries expected", calls)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	srv := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL + "/v1", Timeout: 50 * time.Millisecond})
	res := c.Analyze(context.Background(), []byte("img"))
	if res.OK || res.Message != "timeout" {
		t.Fatalf("got %+v, want timeout failure", res)
	}
}

func TestAnalyzeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: url})
	res := c.Analyze(context.Background(), []byte("img"))
	if res.OK || res.Message == "" {
		t.Fatalf("expected failure with message, got %+v", res)
	}
}

func TestAnalyzeEmptyChoices(t *testing.T) {
	srv := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","choices":[]}`))
	})
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	res := c.Analyze(context.Background(), []byte("img"))
	if res.OK {
		t.Fatal("expected failure on empty choices")
	}
}

func TestIsReasoningModel(t *testing.T) {
	if !isReasoningModel("o3-2025-04-16") || isReasoningModel("gemini-1.5-flash") {
		t.Fatal("reasoning model detection is wrong")
	}
}
