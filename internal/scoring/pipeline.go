package scoring

import (
	"context"

	"revscore/internal/domain"
)

// Pipeline turns raw reviews into fused, immutable scored reviews.
type Pipeline struct {
	Heuristic    Heuristic
	Weights      Weights
	Sentiment    domain.Model
	Authenticity domain.Model
}

func NewPipeline(h Heuristic, w Weights, sentiment, authenticity domain.Model) *Pipeline {
	return &Pipeline{Heuristic: h, Weights: w, Sentiment: sentiment, Authenticity: authenticity}
}

// Run scores reviews in input order. Model failures degrade to zero components and set
// degraded.
func (p *Pipeline) Run(ctx context.Context, reviews []domain.Review) (out []domain.ScoredReview, degraded bool, err error) {
	bs := make([]*Builder, len(reviews))
	for i, r := range reviews {
		bs[i] = NewBuilder(r)
	}
	if err := p.Heuristic.Apply(bs); err != nil {
		return nil, false, err
	}
	if degraded, err = ApplyModels(ctx, bs, p.Sentiment, p.Authenticity); err != nil {
		return nil, false, err
	}

	out = make([]domain.ScoredReview, 0, len(bs))
	for _, b := range bs {
		sr, err := b.Build(p.Weights)
		if err != nil {
			return nil, false, err
		}
		out = append(out, sr)
	}
	return out, degraded, nil
}
