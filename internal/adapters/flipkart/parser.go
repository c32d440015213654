package flipkart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"revscore/internal/domain"
)

var errPageCountMissing = errors.New("page count marker not found")

// ParseReviews extracts the reviews of one page. A block missing its text or rating,
// or carrying unreadable vote counts, is skipped on its own.
func ParseReviews(html string, sel Selectors) ([]domain.Review, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var out []domain.Review
	doc.Find(sel.Review).Each(func(_ int, s *goquery.Selection) {
		if r, ok := parseReview(s, sel); ok {
			out = append(out, r)
		}
	})
	return out, nil
}

func parseReview(s *goquery.Selection, sel Selectors) (domain.Review, bool) {
	var r domain.Review

	text := s.Find(sel.Text).First()
	rating := s.Find(sel.Rating).First()
	if text.Length() == 0 || rating.Length() == 0 {
		return r, false
	}
	r.Text = CleanText(text.Text())
	r.Rating = ptrStr(strings.TrimSpace(rating.Text()))

	s.Find(sel.Meta).Each(func(_ int, p *goquery.Selection) {
		classes := strings.Fields(p.AttrOr("class", ""))
		switch {
		case hasClass(classes, sel.UserClass):
			r.User = ptrStr(strings.TrimSpace(p.Text()))
		case len(classes) == 1:
			r.Time = ptrStr(strings.TrimSpace(p.Text()))
		}
	})

	ok := true
	s.Find(sel.Votes).EachWithBreak(func(_ int, v *goquery.Selection) bool {
		n, err := strconv.Atoi(strings.TrimSpace(v.Text()))
		if err != nil || n < 0 {
			ok = false
			return false
		}
		if hasClass(strings.Fields(v.AttrOr("class", "")), sel.DislikeClass) {
			r.LDR.Dislikes = n
		} else {
			r.LDR.Likes = n
		}
		return true
	})
	return r, ok
}

// ParsePageCount reads N from a "Page x of N" marker.
func ParsePageCount(html string, sel Selectors) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}

	count, found := 0, false
	doc.Find(sel.Pagination).Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.Contains(text, "Page") || !strings.Contains(text, "of") {
			return true
		}
		fields := strings.Fields(text)
		n, err := strconv.Atoi(strings.ReplaceAll(fields[len(fields)-1], ",", ""))
		if err != nil {
			return true
		}
		count, found = n, true
		return false
	})
	if !found {
		return 0, errPageCountMissing
	}
	return count, nil
}

func hasClass(classes []string, want string) bool {
	if want == "" {
		return false
	}
	for _, c := range classes {
		if c == want {
			return true
		}
	}
	return false
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
