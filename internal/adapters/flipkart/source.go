package flipkart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"revscore/internal/adapters/observability"
	"revscore/internal/domain"
)

// Source reads Flipkart review pages through fetch sessions.
type Source struct {
	profile          Profile
	sessions         domain.SessionProvider
	pageTimeout      time.Duration
	discoveryTimeout time.Duration
}

func NewSource(p Profile, sessions domain.SessionProvider, pageTimeout, discoveryTimeout time.Duration) *Source {
	if pageTimeout <= 0 {
		pageTimeout = 3 * time.Second
	}
	if discoveryTimeout <= 0 {
		discoveryTimeout = 5 * time.Second
	}
	return &Source{profile: p, sessions: sessions, pageTimeout: pageTimeout, discoveryTimeout: discoveryTimeout}
}

// PageCount opens its own short-lived session to read the pagination marker. Any
// failure is logged and reported as a single page.
func (s *Source) PageCount(ctx context.Context, target string) int {
	l := observability.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.discoveryTimeout)
	defer cancel()

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		l.Error().Err(err).Msg("failed to open session for page count")
		return 1
	}
	defer sess.Close()

	html, err := sess.Load(ctx, target, s.profile.Selectors.Pagination)
	if err != nil {
		l.Error().Err(err).Msg("failed to load review page for page count")
		return 1
	}
	n, err := ParsePageCount(html, s.profile.Selectors)
	if err != nil {
		l.Error().Err(err).Msg("unable to find the number of review pages")
		return 1
	}
	return n
}

// FetchPage loads and parses one review page. Missing pages and page timeouts yield no
// reviews; other load failures are returned for the caller to retry.
func (s *Source) FetchPage(ctx context.Context, sess domain.Session, target string, page int) ([]domain.Review, error) {
	pctx, cancel := context.WithTimeout(ctx, s.pageTimeout)
	defer cancel()

	html, err := sess.Load(pctx, s.profile.PageURL(target, page), s.profile.Selectors.Review)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		observability.FromContext(ctx).Warn().Int("page", page).Msg("page load timed out")
		return nil, nil
	default:
		return nil, fmt.Errorf("load page %d: %w", page, err)
	}
	return ParseReviews(html, s.profile.Selectors)
}
