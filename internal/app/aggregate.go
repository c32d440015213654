package app

import (
	"math"

	"revscore/internal/domain"
	"revscore/internal/scoring"
)

// Aggregate computes the report statistics over scored reviews. Summary, related items
// and timestamps are left to the caller.
func Aggregate(reviews []domain.ScoredReview) domain.Report {
	rep := domain.Report{
		Reviews:        reviews,
		ReviewsScraped: len(reviews),
		RelatedItems:   []domain.RelatedItem{},
	}
	if rep.Reviews == nil {
		rep.Reviews = []domain.ScoredReview{}
	}
	if len(reviews) == 0 {
		rep.UserSentiment = string(scoring.Neutral)
		return rep
	}

	var final, sent float64
	fake := 0
	for _, r := range reviews {
		final += r.Final
		sent += r.Score.Sent
		if r.Score.Plag > 0.5 {
			fake++
		}
	}
	n := float64(len(reviews))
	meanFinal := final / n

	rep.SentimentScore = percent(sent / n)
	rep.FinalScore = percent(meanFinal)
	rep.FakeRatio = percent(float64(fake) / n)
	rep.UserSentiment = string(scoring.Classify(meanFinal))
	return rep
}

func percent(f float64) int { return int(math.RoundToEven(f * 100)) }
