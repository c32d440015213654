package app

import (
	"fmt"
	"strings"

	"revscore/internal/domain"
)

const DefaultTargetPrefix = "https://www.flipkart.com/"

// ProductID returns the first path segment after prefix. It performs no I/O.
func ProductID(prefix, url string) (string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(url), prefix)
	if !ok {
		return "", fmt.Errorf("%w: %q does not start with %q", domain.ErrInvalidTarget, url, prefix)
	}
	id, _, _ := strings.Cut(rest, "/")
	if id == "" || strings.ContainsAny(id, "?#") {
		return "", fmt.Errorf("%w: no product segment in %q", domain.ErrInvalidTarget, url)
	}
	return id, nil
}
