package domain

import (
	"encoding/json"
	"fmt"
)

// Review is one user-submitted review as parsed from a page.
type Review struct {
	Text   string  `json:"review"`
	User   *string `json:"user"`
	Rating *string `json:"rating"`
	Time   *string `json:"time"`
	LDR    LDR     `json:"ldr"`
}

// LDR holds like/dislike counts. It encodes as a [likes, dislikes] pair.
type LDR struct {
	Likes    int
	Dislikes int
}

func (l LDR) Total() int { return l.Likes + l.Dislikes }

// Ratio is (likes-dislikes)/(likes+dislikes), 0 when there are no votes.
func (l LDR) Ratio() float64 {
	if l.Total() == 0 {
		return 0.0
	}
	return float64(l.Likes-l.Dislikes) / float64(l.Total())
}

func (l LDR) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{l.Likes, l.Dislikes})
}

func (l *LDR) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("ldr: want 2 values, got %d", len(pair))
	}
	l.Likes, l.Dislikes = pair[0], pair[1]
	return nil
}

// Scores are the per-review components, each in [0,1].
type Scores struct {
	LDR  float64 `json:"ldr"`  // alignment with the corpus like/dislike ratio
	Eng  float64 `json:"eng"`  // engagement
	Len  float64 `json:"len"`  // text length
	Sent float64 `json:"sent"` // sentiment model
	Plag float64 `json:"plag"` // authenticity model
}

// ScoredReview is a review with every score component and the fused final score.
type ScoredReview struct {
	Review
	Score Scores  `json:"score"`
	Final float64 `json:"final_score"`
}
