package scoring

import (
	"math"
	"unicode/utf8"

	"revscore/internal/domain"
)

// Heuristic scores the structural signals of a review corpus.
type Heuristic struct {
	LengthNorm float64 // text length that earns a full len score
	VotesNorm  float64 // likes+dislikes that earn a full eng score
}

func DefaultHeuristic() Heuristic {
	return Heuristic{LengthNorm: 300, VotesNorm: 10}
}

// Baseline is the like/dislike ratio of the whole corpus, 0 without votes.
func Baseline(rs []domain.Review) float64 {
	var total domain.LDR
	for _, r := range rs {
		total.Likes += r.LDR.Likes
		total.Dislikes += r.LDR.Dislikes
	}
	return total.Ratio()
}

// Alignment is 1 - |ratio - baseline| without clamping; it ranges over [-1,1].
func Alignment(r domain.Review, baseline float64) float64 {
	return 1.0 - math.Abs(r.LDR.Ratio()-baseline)
}

// Apply sets the ldr, eng and len components on every builder.
func (h Heuristic) Apply(bs []*Builder) error {
	reviews := make([]domain.Review, len(bs))
	for i, b := range bs {
		reviews[i] = b.Review()
	}
	baseline := Baseline(reviews)

	for _, b := range bs {
		r := b.Review()
		if err := b.Set(LDR, clamp01(Alignment(r, baseline))); err != nil {
			return err
		}
		if err := b.Set(Eng, ratioCapped(float64(r.LDR.Total()), h.VotesNorm)); err != nil {
			return err
		}
		if err := b.Set(Len, ratioCapped(float64(utf8.RuneCountInString(r.Text)), h.LengthNorm)); err != nil {
			return err
		}
	}
	return nil
}

func ratioCapped(v, norm float64) float64 {
	if norm <= 0 || v <= 0 {
		return 0
	}
	return math.Min(v/norm, 1.0)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
