package scoring

import (
	"math"

	"revscore/internal/domain"
)

// Weights blend the score components. They intentionally sum to more than 1; the fused
// score is clamped at 1 from above only.
type Weights struct {
	LDR, Eng, Len, Sent, Plag float64
}

func DefaultWeights() Weights {
	return Weights{LDR: 0.0829, Eng: 0.4726, Len: 0.0363, Sent: 0.3277, Plag: 0.4035}
}

func (w Weights) Fuse(s domain.Scores) float64 {
	sum := w.LDR*s.LDR + w.Eng*s.Eng + w.Len*s.Len + w.Sent*s.Sent + w.Plag*s.Plag
	return math.Min(sum, 1.0)
}
