package scraper

import (
	"context"
	crand "crypto/rand"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"revscore/internal/adapters/observability"
	"revscore/internal/domain"
)

type Config struct {
	Workers       int           // concurrent workers, each with its own session
	PageCap       int           // hard upper bound on pages visited per target
	MaxEmptyPages int           // consecutive empty pages after which a worker stops
	PageRetries   int           // fetch attempts per page
	PageDelay     time.Duration // pause before every page fetch
	RetryDelay    time.Duration // base delay between attempts, doubled each retry
}

func DefaultConfig() Config {
	return Config{
		Workers:       1,
		PageCap:       50,
		MaxEmptyPages: 3,
		PageRetries:   2,
		PageDelay:     500 * time.Millisecond,
		RetryDelay:    time.Second,
	}
}

// PageEvent describes the outcome of one page visited by a worker.
type PageEvent struct {
	Target   string
	Worker   int
	Page     int
	Reviews  int
	Attempts int
	Err      error // last fetch error when every attempt failed
}

// PageObserver receives page events from all workers concurrently.
type PageObserver func(PageEvent)

type Option func(*Scraper)

// WithObserver installs a page observer. It must be safe for concurrent use.
func WithObserver(o PageObserver) Option {
	return func(s *Scraper) { s.observe = o }
}

// Scraper walks the review pages of a target with a pool of isolated workers.
type Scraper struct {
	cfg      Config
	source   domain.PageSource
	sessions domain.SessionProvider
	observe  PageObserver
}

func New(cfg Config, source domain.PageSource, sessions domain.SessionProvider, opts ...Option) *Scraper {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.PageRetries < 1 {
		cfg.PageRetries = 1
	}
	if cfg.MaxEmptyPages < 1 {
		cfg.MaxEmptyPages = 1
	}
	s := &Scraper{cfg: cfg, source: source, sessions: sessions, observe: func(PageEvent) {}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape collects every review it can reach for target. Page, worker and discovery
// failures shrink the result instead of failing the call. Reviews of one worker keep
// page order; the interleaving between workers is unspecified.
func (s *Scraper) Scrape(ctx context.Context, target string) []domain.Review {
	l := observability.FromContext(ctx)

	total := s.source.PageCount(ctx, target)
	if total <= 0 {
		l.Warn().Msg("no pages to scrape")
		return nil
	}

	workers := min(s.cfg.Workers, s.cfg.PageCap)
	batches := Batch(total, workers, s.cfg.PageCap)
	l.Info().
		Int("pages", total).
		Int("workers", workers).
		Interface("batches", batches).
		Msg("scrape starting")

	// each worker owns exactly one slot; slots are read only after Wait
	slots := make([][]domain.Review, len(batches))
	var g errgroup.Group
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			slots[i] = s.work(ctx, i, target, b)
			return nil
		})
	}
	_ = g.Wait()

	var all []domain.Review
	for _, rs := range slots {
		all = append(all, rs...)
	}
	observability.ScrapedReviews.Add(float64(len(all)))
	l.Info().Int("reviews", len(all)).Msg("scrape finished")
	return all
}

// work walks one batch sequentially with its own session and returns what it collected,
// including on early stop, cancellation or panic.
func (s *Scraper) work(ctx context.Context, id int, target string, b PageBatch) (out []domain.Review) {
	l := observability.FromContext(ctx).With().Int("worker", id).Logger()

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		l.Error().Err(err).Msg("acquire session failed")
		return nil
	}
	observability.ActiveSessions.Inc()
	defer func() {
		if err := sess.Close(); err != nil {
			l.Warn().Err(err).Msg("release session failed")
		}
		observability.ActiveSessions.Dec()
	}()
	defer func() {
		if r := recover(); r != nil {
			l.Error().Interface("panic", r).Int("collected", len(out)).Msg("worker aborted")
		}
	}()

	empty := 0
	for page := b.Start; page <= b.End; page++ {
		if !sleepCtx(ctx, s.cfg.PageDelay) {
			l.Warn().Int("page", page).Msg("scrape cancelled")
			return out
		}

		reviews, attempts, err := s.fetch(ctx, sess, target, page)
		s.observe(PageEvent{Target: target, Worker: id, Page: page, Reviews: len(reviews), Attempts: attempts, Err: err})
		if err != nil {
			observability.ObservePage("failed")
			l.Warn().Err(err).Int("page", page).Int("attempts", attempts).Msg("page failed, treating as empty")
		}
		if ctx.Err() != nil {
			l.Warn().Int("page", page).Msg("scrape cancelled")
			return out
		}

		if len(reviews) > 0 {
			observability.ObservePage("ok")
			out = append(out, reviews...)
			empty = 0
			l.Info().Int("page", page).Int("reviews", len(reviews)).Msg("page scraped")
			continue
		}

		if err == nil {
			observability.ObservePage("empty")
		}
		empty++
		l.Info().Int("page", page).Int("empty_streak", empty).Msg("page had no reviews")
		if empty >= s.cfg.MaxEmptyPages {
			l.Warn().Int("page", page).Msg("empty page limit reached, stopping worker")
			break
		}
	}
	return out
}

// fetch tries one page up to PageRetries times and reports how many attempts it used.
func (s *Scraper) fetch(ctx context.Context, sess domain.Session, target string, page int) ([]domain.Review, int, error) {
	var last error
	for i := 0; i < s.cfg.PageRetries; i++ {
		reviews, err := s.source.FetchPage(ctx, sess, target, page)
		if err == nil {
			return reviews, i + 1, nil
		}
		last = err
		if i == s.cfg.PageRetries-1 || !sleepCtx(ctx, s.retryWait(err, i)) {
			return nil, i + 1, last
		}
	}
	return nil, s.cfg.PageRetries, last
}

// retryWait prefers a server-provided Retry-After over exponential backoff.
func (s *Scraper) retryWait(err error, attempt int) time.Duration {
	var ra interface{ RetryAfter() time.Duration }
	if errors.As(err, &ra) && ra.RetryAfter() > 0 {
		return ra.RetryAfter()
	}
	return backoff(s.cfg.RetryDelay, attempt)
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff doubles base per attempt and adds up to 50% jitter.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := time.Duration(1<<attempt) * base
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return d
	}
	f := float64(b[0]) / 255.0
	return d + time.Duration(0.5*f*float64(d))
}
