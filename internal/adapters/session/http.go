package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"revscore/internal/adapters/observability"
	"revscore/internal/domain"
)

const maxPageBytes = 8 << 20

// Options parameterise the request identity of every session.
type Options struct {
	UserAgent      string
	AcceptLanguage string
	Proxy          string  // optional proxy URL
	RPS            float64 // per-session request rate
	Timeout        time.Duration
	ChromeBin      string // rod only: explicit browser binary
}

func DefaultOptions() Options {
	return Options{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
		AcceptLanguage: "en-US,en;q=0.9",
		RPS:            2,
		Timeout:        10 * time.Second,
	}
}

// StatusError is a non-success response worth retrying or reporting.
type StatusError struct {
	Code  int
	After time.Duration
}

func (e *StatusError) Error() string { return fmt.Sprintf("remote %d", e.Code) }

// RetryAfter is the server-provided wait, 0 when absent.
func (e *StatusError) RetryAfter() time.Duration { return e.After }

// HTTPProvider hands out plain HTTP sessions. Each session has its own client, cookie
// jar and rate limiter.
type HTTPProvider struct {
	opts Options
}

func NewHTTPProvider(opts Options) (*HTTPProvider, error) {
	if opts.Proxy != "" {
		if _, err := url.Parse(opts.Proxy); err != nil {
			return nil, fmt.Errorf("invalid proxy: %w", err)
		}
	}
	if opts.RPS <= 0 {
		opts.RPS = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &HTTPProvider{opts: opts}, nil
}

func (p *HTTPProvider) Acquire(ctx context.Context) (domain.Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if p.opts.Proxy != "" {
		u, _ := url.Parse(p.opts.Proxy)
		tr.Proxy = http.ProxyURL(u)
	}
	burst := max(int(p.opts.RPS), 1)
	return &httpSession{
		opts: p.opts,
		hc:   &http.Client{Timeout: p.opts.Timeout, Jar: jar, Transport: tr},
		tr:   tr,
		rl:   rate.NewLimiter(rate.Limit(p.opts.RPS), burst),
	}, nil
}

type httpSession struct {
	opts Options
	hc   *http.Client
	tr   *http.Transport
	rl   *rate.Limiter
	once sync.Once
}

// Load performs one GET. waitFor is ignored: the response is static HTML.
func (s *httpSession) Load(ctx context.Context, url, waitFor string) (string, error) {
	// client-side rate limiting
	if err := s.rl.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept-Language", s.opts.AcceptLanguage)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := s.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("site", "page", 0, time.Since(start))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("site", "page", resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		return string(b), nil

	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", domain.ErrNotFound

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", &StatusError{Code: resp.StatusCode, After: retryAfter(resp)}

	default:
		return "", &StatusError{Code: resp.StatusCode}
	}
}

func (s *httpSession) Close() error {
	s.once.Do(s.tr.CloseIdleConnections)
	return nil
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
