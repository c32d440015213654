// Package bootstrap assembles the analysis service from configuration.
package bootstrap

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"revscore/internal/adapters/flipkart"
	"revscore/internal/adapters/inference"
	"revscore/internal/adapters/llm"
	redisad "revscore/internal/adapters/redis"
	"revscore/internal/adapters/session"
	"revscore/internal/app"
	"revscore/internal/domain"
	"revscore/internal/scoring"
	"revscore/internal/scraper"
	"revscore/internal/shared"
)

// Deps are the built collaborators. Close releases the ones holding connections.
type Deps struct {
	Service *app.AnalysisService
	Cache   *redisad.Cache
}

func (d *Deps) Close() error { return d.Cache.Close() }

// sessionOptions maps config onto session identity. Sessions serve page, discovery and
// related loads, so the client timeout is the widest of those; each call is bounded by
// its own context.
func sessionOptions(cfg shared.Config) session.Options {
	return session.Options{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Proxy:          cfg.Proxy,
		RPS:            cfg.SessionRPS,
		Timeout:        max(cfg.PageTimeout, cfg.DiscoveryTimeout),
		ChromeBin:      cfg.ChromeBin,
	}
}

func Sessions(cfg shared.Config) (domain.SessionProvider, error) {
	opts := sessionOptions(cfg)
	if cfg.Backend == "rod" {
		return session.NewRodProvider(opts), nil
	}
	return session.NewHTTPProvider(opts)
}

func Build(cfg shared.Config, opts ...scraper.Option) (*Deps, error) {
	profile := flipkart.DefaultProfile()
	if cfg.ProfilePath != "" {
		p, err := flipkart.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	sessions, err := Sessions(cfg)
	if err != nil {
		return nil, fmt.Errorf("session provider: %w", err)
	}
	source := flipkart.NewSource(profile, sessions, cfg.PageTimeout, cfg.DiscoveryTimeout)
	scr := scraper.New(scraper.Config{
		Workers:       cfg.Workers,
		PageCap:       cfg.PageCap,
		MaxEmptyPages: cfg.MaxEmptyPages,
		PageRetries:   cfg.PageRetries,
		PageDelay:     cfg.PageDelay,
		RetryDelay:    cfg.RetryDelay,
	}, source, sessions, opts...)

	sentiment, err := inference.New("sentiment", cfg.SentimentURL, cfg.InferenceKey, 5)
	if err != nil {
		return nil, err
	}
	authenticity, err := inference.New("authenticity", cfg.AuthenticityURL, cfg.InferenceKey, 5)
	if err != nil {
		return nil, err
	}
	pipeline := scoring.NewPipeline(
		scoring.Heuristic{LengthNorm: cfg.LengthNorm, VotesNorm: cfg.VotesNorm},
		scoring.DefaultWeights(),
		sentiment, authenticity,
	)

	var sum domain.Summarizer
	if cfg.LLMKey != "" {
		sum = llm.NewClient(cfg.LLMKey, llm.WithBaseURL(cfg.LLMBaseURL), llm.WithModel(cfg.LLMModel))
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	related := flipkart.NewRelatedFinder(profile, sessions, cfg.DiscoveryTimeout)

	svc := app.NewAnalysisService(scr, pipeline, cache, sum, related, app.Options{
		CacheTTL:       cfg.CacheTTL,
		SummaryReviews: cfg.LLMReviewCount,
		TargetPrefix:   cfg.TargetPrefix,
	})
	log.Info().
		Str("backend", cfg.Backend).
		Int("workers", cfg.Workers).
		Int("page_cap", cfg.PageCap).
		Bool("summaries", sum != nil).
		Msg("analysis service ready")
	return &Deps{Service: svc, Cache: cache}, nil
}
