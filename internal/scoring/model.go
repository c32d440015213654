package scoring

import (
	"context"
	"fmt"

	"revscore/internal/adapters/observability"
	"revscore/internal/domain"
)

// ApplyModels sets the sent and plag components. Reviews without text, and every review
// when a model fails or misbehaves, get 0.0 for that model; degraded reports the latter.
func ApplyModels(ctx context.Context, bs []*Builder, sentiment, authenticity domain.Model) (degraded bool, err error) {
	var texts []string
	var idx []int
	for i, b := range bs {
		if t := b.Review().Text; t != "" {
			texts = append(texts, t)
			idx = append(idx, i)
		}
	}

	for _, m := range []struct {
		c     Component
		model domain.Model
	}{{Sent, sentiment}, {Plag, authenticity}} {
		vals := make([]float64, len(bs))
		scores, err := runModel(ctx, m.model, texts)
		if err != nil {
			observability.FromContext(ctx).Error().Err(err).Str("component", m.c.String()).
				Int("texts", len(texts)).Msg("model scoring failed, using defaults")
			degraded = true
		} else {
			for j, i := range idx {
				vals[i] = clamp01(scores[j])
			}
		}
		for i, b := range bs {
			if err := b.Set(m.c, vals[i]); err != nil {
				return degraded, err
			}
		}
	}
	return degraded, nil
}

func runModel(ctx context.Context, m domain.Model, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if m == nil {
		return nil, fmt.Errorf("no model configured")
	}
	scores, err := m.Score(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(texts) {
		return nil, fmt.Errorf("model returned %d scores for %d texts", len(scores), len(texts))
	}
	return scores, nil
}
