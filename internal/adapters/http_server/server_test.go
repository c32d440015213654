package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"revscore/internal/domain"
)

type fakeAnalyser struct {
	rep   domain.Report
	err   error
	calls int
}

func (f *fakeAnalyser) Analyse(ctx context.Context, url string) (domain.Report, error) {
	f.calls++
	return f.rep, f.err
}

func newTestServer(t *testing.T, a Analyser, opts Options) *httptest.Server {
	t.Helper()
	srv := New(opts)
	srv.MountHandlers(&Handlers{A: a})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string, hdr map[string]string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &fakeAnalyser{}, Options{})
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != 200 || body["health"] != "ok" {
		t.Fatalf("unexpected health response %d %v", resp.StatusCode, body)
	}
}

func TestAnalyse_OKAndETag(t *testing.T) {
	a := &fakeAnalyser{rep: domain.Report{ProductID: "phone-x", ReviewsScraped: 3, UserSentiment: "positive",
		Reviews: []domain.ScoredReview{}, RelatedItems: []domain.RelatedItem{}}}
	ts := newTestServer(t, a, Options{})

	for _, path := range []string{"/v1/analyse", "/analyse"} {
		resp := post(t, ts.URL+path, `{"url":"https://www.flipkart.com/phone-x/p/itm1"}`, nil)
		if resp.StatusCode != 200 {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
		var got map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&got)
		if got["ReviewsScraped"] != 3.0 || got["UserSentiment"] != "positive" {
			t.Fatalf("%s: unexpected body %v", path, got)
		}
		etag := resp.Header.Get("ETag")
		if etag == "" {
			t.Fatalf("missing ETag")
		}
		again := post(t, ts.URL+path, `{"url":"https://www.flipkart.com/phone-x/p/itm1"}`, map[string]string{"If-None-Match": etag})
		if again.StatusCode != http.StatusNotModified {
			t.Fatalf("expected 304, got %d", again.StatusCode)
		}
	}
}

func TestAnalyse_Problems(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"bad json", `{`, nil, 400},
		{"missing url", `{}`, nil, 400},
		{"invalid target", `{"url":"https://example.com"}`, fmt.Errorf("%w: nope", domain.ErrInvalidTarget), 400},
		{"timeout", `{"url":"x"}`, context.DeadlineExceeded, 504},
		{"internal", `{"url":"x"}`, errors.New("boom"), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeAnalyser{err: tt.err}, Options{})
			resp := post(t, ts.URL+"/v1/analyse", tt.body, nil)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
				t.Fatalf("content type = %q", ct)
			}
			var p problem
			if err := json.NewDecoder(resp.Body).Decode(&p); err != nil || p.Status != tt.status {
				t.Fatalf("bad problem body %+v, %v", p, err)
			}
		})
	}
}

func TestAnalyse_UnencodableReportIsInternalError(t *testing.T) {
	a := &fakeAnalyser{rep: domain.Report{ProductID: "phone-x", Reviews: []domain.ScoredReview{{Final: math.NaN()}}}}
	ts := newTestServer(t, a, Options{})

	resp := post(t, ts.URL+"/v1/analyse", `{"url":"https://www.flipkart.com/phone-x/p/itm1"}`, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if resp.Header.Get("ETag") != "" {
		t.Fatalf("unexpected ETag on failure")
	}
	var p problem
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil || p.Status != 500 {
		t.Fatalf("bad problem body %+v, %v", p, err)
	}
}

func TestRateLimit(t *testing.T) {
	a := &fakeAnalyser{}
	ts := newTestServer(t, a, Options{RateLimitRPM: 2})
	body := `{"url":"https://www.flipkart.com/x"}`

	for i := 0; i < 2; i++ {
		if resp := post(t, ts.URL+"/analyse", body, nil); resp.StatusCode != 200 {
			t.Fatalf("request %d: status %d", i, resp.StatusCode)
		}
	}
	resp := post(t, ts.URL+"/analyse", body, nil)
	if resp.StatusCode != http.StatusTooManyRequests || resp.Header.Get("Retry-After") != "30" {
		t.Fatalf("expected 429 with Retry-After, got %d %q", resp.StatusCode, resp.Header.Get("Retry-After"))
	}
	// forwarding headers from an untrusted peer do not change the client key
	for i, hdr := range []map[string]string{
		{"X-Forwarded-For": "203.0.113.1"},
		{"X-Forwarded-For": "203.0.113.2, 10.0.0.1"},
		{"X-Real-IP": "10.0.0.9"},
		{"True-Client-IP": "198.51.100.4"},
	} {
		if resp := post(t, ts.URL+"/analyse", body, hdr); resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("spoofed header %d: status %d", i, resp.StatusCode)
		}
	}
	if a.calls != 2 {
		t.Fatalf("analyser calls = %d, want 2", a.calls)
	}
	// health is never limited
	if r, _ := http.Get(ts.URL + "/healthz"); r.StatusCode != 200 {
		t.Fatalf("healthz limited")
	}
}

func TestRateLimit_TrustedProxyKeysOnForwardedClient(t *testing.T) {
	a := &fakeAnalyser{}
	ts := newTestServer(t, a, Options{RateLimitRPM: 1, TrustProxy: true})
	body := `{"url":"https://www.flipkart.com/x"}`
	first := map[string]string{"X-Real-IP": "10.0.0.8"}

	if resp := post(t, ts.URL+"/analyse", body, first); resp.StatusCode != 200 {
		t.Fatalf("first client: status %d", resp.StatusCode)
	}
	if resp := post(t, ts.URL+"/analyse", body, first); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("first client again: status %d", resp.StatusCode)
	}
	if resp := post(t, ts.URL+"/analyse", body, map[string]string{"X-Real-IP": "10.0.0.9"}); resp.StatusCode != 200 {
		t.Fatalf("other client: status %d", resp.StatusCode)
	}
	if a.calls != 2 {
		t.Fatalf("analyser calls = %d, want 2", a.calls)
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, &fakeAnalyser{}, Options{CORSOrigins: []string{"https://app.example"}})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/analyse", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("unexpected preflight %d %v", resp.StatusCode, resp.Header)
	}

	other := post(t, ts.URL+"/analyse", `{"url":"x"}`, map[string]string{"Origin": "https://evil.example"})
	if other.Header.Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected CORS header for foreign origin")
	}
}

func TestTimeoutCancelsAnalysis(t *testing.T) {
	slow := analyserFunc(func(ctx context.Context, url string) (domain.Report, error) {
		<-ctx.Done()
		return domain.Report{}, ctx.Err()
	})
	ts := newTestServer(t, slow, Options{Timeout: 50 * time.Millisecond})
	resp := post(t, ts.URL+"/analyse", `{"url":"x"}`, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected timeout handler 503, got %d", resp.StatusCode)
	}
}

type analyserFunc func(ctx context.Context, url string) (domain.Report, error)

func (f analyserFunc) Analyse(ctx context.Context, url string) (domain.Report, error) { return f(ctx, url) }
