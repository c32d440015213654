package scoring

// Label is the discretised sentiment of a corpus.
type Label string

const (
	VeryNegative Label = "very negative"
	Negative     Label = "negative"
	Neutral      Label = "neutral"
	Positive     Label = "positive"
	VeryPositive Label = "very positive"
)

// Classify buckets a mean final score using half-open thresholds. Anything at or above
// 0.75 is very positive.
func Classify(mean float64) Label {
	switch {
	case mean < 0.05:
		return VeryNegative
	case mean < 0.15:
		return Negative
	case mean < 0.35:
		return Neutral
	case mean < 0.75:
		return Positive
	default:
		return VeryPositive
	}
}
