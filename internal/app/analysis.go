package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"revscore/internal/adapters/flipkart"
	"revscore/internal/adapters/observability"
	"revscore/internal/domain"
)

type ReviewScraper interface {
	Scrape(ctx context.Context, target string) []domain.Review
}

type ReviewScorer interface {
	// Run reports degraded when some scores fell back to defaults.
	Run(ctx context.Context, reviews []domain.Review) (scored []domain.ScoredReview, degraded bool, err error)
}

type Options struct {
	CacheTTL       time.Duration
	SummaryReviews int    // reviews fed to the summariser
	TargetPrefix   string // accepted product URL prefix
}

func DefaultOptions() Options {
	return Options{CacheTTL: 24 * time.Hour, SummaryReviews: 20, TargetPrefix: DefaultTargetPrefix}
}

// AnalysisService scrapes, scores and summarises one product, caching the report by
// product id. Reports with no reviews or degraded model scores are not cached.
type AnalysisService struct {
	scraper    ReviewScraper
	scorer     ReviewScorer
	cache      domain.Cache
	summarizer domain.Summarizer
	related    domain.RelatedFinder
	opts       Options
	now        func() time.Time
}

func NewAnalysisService(s ReviewScraper, sc ReviewScorer, c domain.Cache, sum domain.Summarizer, rel domain.RelatedFinder, opts Options) *AnalysisService {
	if opts.TargetPrefix == "" {
		opts.TargetPrefix = DefaultTargetPrefix
	}
	return &AnalysisService{scraper: s, scorer: sc, cache: c, summarizer: sum, related: rel, opts: opts, now: time.Now}
}

func cacheKey(id string) string { return "report:" + id }

func (s *AnalysisService) Analyse(ctx context.Context, url string) (domain.Report, error) {
	id, err := ProductID(s.opts.TargetPrefix, url)
	if err != nil {
		return domain.Report{}, err
	}
	ctx = observability.WithItem(ctx, id)
	l := observability.FromContext(ctx)

	var rep domain.Report
	if ok, err := s.cache.Get(ctx, cacheKey(id), &rep); err != nil {
		l.Warn().Err(err).Msg("cache read failed")
	} else if ok {
		l.Info().Msg("report served from cache")
		return rep, nil
	}

	l.Info().Msg("analysing")
	var (
		scored   []domain.ScoredReview
		degraded bool
		related  []domain.RelatedItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		scored, degraded, err = s.scorer.Run(gctx, s.scraper.Scrape(gctx, url))
		return err
	})
	g.Go(func() error {
		related = s.findRelated(gctx, url)
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Report{}, err
	}

	rep = Aggregate(scored)
	rep.ProductID = id
	rep.RelatedItems = related
	rep.Summary = s.summarize(ctx, scored)
	rep.GeneratedAt = s.now().UTC()

	switch {
	case rep.ReviewsScraped == 0:
		l.Warn().Msg("no reviews scraped, report not cached")
	case degraded:
		l.Warn().Msg("model scores degraded, report not cached")
	default:
		if err := s.cache.Set(ctx, cacheKey(id), rep, int(s.opts.CacheTTL.Seconds())); err != nil {
			l.Warn().Err(err).Msg("cache write failed")
		}
	}
	l.Info().
		Int("reviews", rep.ReviewsScraped).
		Bool("degraded", degraded).
		Str("sentiment", rep.UserSentiment).
		Msg("analysis done")
	return rep, nil
}

// Invalidate drops the cached report for url.
func (s *AnalysisService) Invalidate(ctx context.Context, url string) error {
	id, err := ProductID(s.opts.TargetPrefix, url)
	if err != nil {
		return err
	}
	return s.cache.Del(ctx, cacheKey(id))
}

func (s *AnalysisService) summarize(ctx context.Context, reviews []domain.ScoredReview) string {
	if s.summarizer == nil {
		return ""
	}
	var texts []string
	for _, r := range reviews[:min(len(reviews), s.opts.SummaryReviews)] {
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
	}
	if len(texts) == 0 {
		return ""
	}
	out, err := s.summarizer.Summarize(ctx, texts)
	if err != nil {
		observability.FromContext(ctx).Error().Err(err).Msg("summary failed")
		return ""
	}
	return flipkart.CleanText(out)
}

func (s *AnalysisService) findRelated(ctx context.Context, url string) []domain.RelatedItem {
	if s.related == nil {
		return []domain.RelatedItem{}
	}
	items, err := s.related.Related(ctx, url)
	if err != nil {
		observability.FromContext(ctx).Warn().Err(err).Msg("related items failed")
		return []domain.RelatedItem{}
	}
	if items == nil {
		return []domain.RelatedItem{}
	}
	return items
}
