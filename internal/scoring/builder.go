package scoring

import (
	"errors"
	"fmt"

	"revscore/internal/domain"
)

var (
	ErrDuplicateComponent = errors.New("scoring: component already set")
	ErrIncompleteScores   = errors.New("scoring: missing score components")
)

// Component names one score of a review.
type Component uint8

const (
	LDR Component = 1 << iota
	Eng
	Len
	Sent
	Plag

	allComponents = LDR | Eng | Len | Sent | Plag
)

func (c Component) String() string {
	switch c {
	case LDR:
		return "ldr"
	case Eng:
		return "eng"
	case Len:
		return "len"
	case Sent:
		return "sent"
	case Plag:
		return "plag"
	}
	return fmt.Sprintf("component(%d)", uint8(c))
}

// Builder accumulates the score components of one review. Each component is written
// exactly once; Build only succeeds after all of them are present.
type Builder struct {
	review domain.Review
	scores domain.Scores
	set    Component
}

func NewBuilder(r domain.Review) *Builder { return &Builder{review: r} }

func (b *Builder) Review() domain.Review { return b.review }

func (b *Builder) Set(c Component, v float64) error {
	if b.set&c != 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateComponent, c)
	}
	switch c {
	case LDR:
		b.scores.LDR = v
	case Eng:
		b.scores.Eng = v
	case Len:
		b.scores.Len = v
	case Sent:
		b.scores.Sent = v
	case Plag:
		b.scores.Plag = v
	default:
		return fmt.Errorf("scoring: unknown %s", c)
	}
	b.set |= c
	return nil
}

// Has reports whether component c was set.
func (b *Builder) Has(c Component) bool { return b.set&c == c }

// Build fuses the components with w into an immutable scored review.
func (b *Builder) Build(w Weights) (domain.ScoredReview, error) {
	if missing := allComponents &^ b.set; missing != 0 {
		return domain.ScoredReview{}, fmt.Errorf("%w: %s", ErrIncompleteScores, missingNames(missing))
	}
	return domain.ScoredReview{Review: b.review, Score: b.scores, Final: w.Fuse(b.scores)}, nil
}

func missingNames(m Component) string {
	out := ""
	for _, c := range []Component{LDR, Eng, Len, Sent, Plag} {
		if m&c != 0 {
			if out != "" {
				out += ","
			}
			out += c.String()
		}
	}
	return out
}
