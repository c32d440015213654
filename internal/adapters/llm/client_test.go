package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	var got ChatCompletionRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Buyers love it."}}]}`))
	}))
	defer ts.Close()

	c := NewClient("secret", WithBaseURL(ts.URL+"/"), WithModel("test-model"))
	summary, err := c.Summarize(context.Background(), []string{"great battery", "poor camera"})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary != "Buyers love it." {
		t.Fatalf("unexpected summary %q", summary)
	}
	if got.Model != "test-model" || len(got.Messages) != 1 {
		t.Fatalf("unexpected request %+v", got)
	}
	prompt := got.Messages[0].Content
	if !strings.HasPrefix(prompt, "You are given a list of user reviews.") ||
		!strings.HasSuffix(prompt, `GIVE ME A 150 WORD REVIEW: ["great battery","poor camera"]`) {
		t.Fatalf("unexpected prompt %q", prompt)
	}
}

func TestSummarize_NoTextsNoCall(t *testing.T) {
	c := NewClient("secret", WithBaseURL("http://127.0.0.1:1"))
	if s, err := c.Summarize(context.Background(), nil); err != nil || s != "" {
		t.Fatalf("expected empty summary, got %q, %v", s, err)
	}
}

func TestSummarize_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()
	quota := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer quota.Close()

	if _, err := NewClient("").Summarize(context.Background(), []string{"x"}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := NewClient("k", WithBaseURL(ts.URL)).Summarize(context.Background(), []string{"x"}); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
	if _, err := NewClient("k", WithBaseURL(quota.URL)).Summarize(context.Background(), []string{"x"}); err == nil {
		t.Fatalf("expected api error")
	}
}
