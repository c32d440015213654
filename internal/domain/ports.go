package domain

import "context"

// Session is an exclusive fetch handle (HTTP client or browser). It is never shared
// between workers.
type Session interface {
	// Load navigates to url and returns the page HTML. When waitFor is non-empty the
	// session waits (bounded) for a matching element before reading the document.
	Load(ctx context.Context, url, waitFor string) (string, error)
	// Close releases the session. Calling it more than once is safe.
	Close() error
}

type SessionProvider interface {
	Acquire(ctx context.Context) (Session, error)
}

// PageSource knows the page format of one review site.
type PageSource interface {
	// PageCount never fails; it returns 1 when the page count cannot be discovered.
	PageCount(ctx context.Context, target string) int
	// FetchPage returns the reviews of one page. An error is a fetch-level failure
	// worth retrying; a page without reviews is (nil, nil).
	FetchPage(ctx context.Context, s Session, target string, page int) ([]Review, error)
}

// Model maps texts to scores in [0,1], same length and order as the input.
type Model interface {
	Score(ctx context.Context, texts []string) ([]float64, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, texts []string) (string, error)
}

type RelatedFinder interface {
	Related(ctx context.Context, target string) ([]RelatedItem, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
