package flipkart

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"revscore/internal/domain"
)

// RelatedFinder lists other products linked from a product page.
type RelatedFinder struct {
	profile  Profile
	sessions domain.SessionProvider
	timeout  time.Duration
}

func NewRelatedFinder(p Profile, sessions domain.SessionProvider, timeout time.Duration) *RelatedFinder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RelatedFinder{profile: p, sessions: sessions, timeout: timeout}
}

func (f *RelatedFinder) Related(ctx context.Context, target string) ([]domain.RelatedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	sess, err := f.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	html, err := sess.Load(ctx, target, f.profile.Selectors.Related)
	if err != nil {
		return nil, err
	}
	return ParseRelated(html, target, f.profile)
}

// ParseRelated returns distinct product links other than target, resolved to absolute URLs.
func ParseRelated(html, target string, p Profile) ([]domain.RelatedItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{base.Path: {}}
	out := []domain.RelatedItem{}
	doc.Find(p.Selectors.Related).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return true
		}
		u, err := base.Parse(href)
		if err != nil {
			return true
		}
		if _, dup := seen[u.Path]; dup {
			return true
		}
		seen[u.Path] = struct{}{}

		title := strings.Join(strings.Fields(s.AttrOr("title", s.Text())), " ")
		u.RawQuery, u.Fragment = "", ""
		out = append(out, domain.RelatedItem{Title: title, URL: u.String()})
		return p.RelatedLimit <= 0 || len(out) < p.RelatedLimit
	})
	return out, nil
}
