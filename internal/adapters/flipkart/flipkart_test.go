package flipkart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"revscore/internal/domain"
)

const reviewPage = `<html><body>
<div class="EKFha-">
  <div class="XQDdHH Ga3i8K">5</div>
  <div class="ZmyHeo"><div>Great phone!!  Battery lasts ages.READ MORE</div></div>
  <p class="_2NsDsF AwS1CA">Asha K</p>
  <p class="_2NsDsF">3 months ago</p>
  <div class="_6kK6mk">12</div>
  <div class="_6kK6mk aQymJL">3</div>
</div>
<div class="EKFha-">
  <div class="ZmyHeo">no rating here</div>
</div>
<div class="EKFha-">
  <div class="XQDdHH Ga3i8K">2</div>
  <div class="ZmyHeo">bad votes</div>
  <div class="_6kK6mk">many</div>
</div>
<div class="EKFha-">
  <div class="XQDdHH Ga3i8K"> 4 </div>
  <div class="ZmyHeo"></div>
</div>
</body></html>`

const paginationPage = `<html><body>
<div class="_1G0WLw mpIySA"><span>Showing reviews</span></div>
<div class="_1G0WLw mpIySA"><span>Page 1 of 1,234</span><nav><a href="?page=2">Next</a></nav></div>
</body></html>`

func ptr[T any](v T) *T { return &v }

func TestParseReviews(t *testing.T) {
	got, err := ParseReviews(reviewPage, DefaultProfile().Selectors)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []domain.Review{
		{
			Text:   "Great phone Battery lasts ages",
			User:   ptr("Asha K"),
			Rating: ptr("5"),
			Time:   ptr("3 months ago"),
			LDR:    domain.LDR{Likes: 12, Dislikes: 3},
		},
		{Text: "", Rating: ptr("4")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reviews mismatch (-want +got):\n%s", diff)
	}
}

func TestParseReviews_NoBlocks(t *testing.T) {
	got, err := ParseReviews("<html><body><p>Be the first to review</p></body></html>", DefaultProfile().Selectors)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no reviews, got %v, %v", got, err)
	}
}

func TestParsePageCount(t *testing.T) {
	n, err := ParsePageCount(paginationPage, DefaultProfile().Selectors)
	if err != nil || n != 1234 {
		t.Fatalf("got %d, %v; want 1234", n, err)
	}
	if _, err := ParsePageCount("<div></div>", DefaultProfile().Selectors); !errors.Is(err, errPageCountMissing) {
		t.Fatalf("expected errPageCountMissing, got %v", err)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"   ", ""},
		{"Nice\n\n product :) READ MORE", "Nice product"},
		{"Worth every ₹ paid", "Worth every paid"},
		{"READ MORE", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProfile_PageURLAndLoad(t *testing.T) {
	p := DefaultProfile()
	got := p.PageURL("https://www.flipkart.com/phone-x/product-reviews/itm1?pid=ABC", 3)
	if got != "https://www.flipkart.com/phone-x/product-reviews/itm1?page=3&pid=ABC" {
		t.Fatalf("unexpected page url %q", got)
	}

	path := filepath.Join(t.TempDir(), "profile.yaml")
	yml := "page_param: p\nselectors:\n  review: div.card\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.PageParam != "p" || loaded.Selectors.Review != "div.card" || loaded.Selectors.Text != "div.ZmyHeo" {
		t.Fatalf("unexpected profile %+v", loaded)
	}
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing profile")
	}
}

func TestParseRelated(t *testing.T) {
	html := `<a href="/phone-x/p/itm1?pid=A">self</a>
<a href="/phone-y/p/itm2?pid=B" title="Phone Y">y</a>
<a href="/phone-y/p/itm2?pid=C">dup</a>
<a href="https://www.flipkart.com/case/p/itm3"> Case
  Z </a>
<a href="/about">about</a>`
	p := DefaultProfile()
	got, err := ParseRelated(html, "https://www.flipkart.com/phone-x/p/itm1?pid=A", p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []domain.RelatedItem{
		{Title: "Phone Y", URL: "https://www.flipkart.com/phone-y/p/itm2"},
		{Title: "Case Z", URL: "https://www.flipkart.com/case/p/itm3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("related mismatch (-want +got):\n%s", diff)
	}
}

// ---- source with a scripted session ----

type scriptedSession struct {
	pages  map[string]string
	errs   map[string]error
	loads  []string
	closed int
}

func (s *scriptedSession) Load(ctx context.Context, url, waitFor string) (string, error) {
	s.loads = append(s.loads, url)
	if err := s.errs[url]; err != nil {
		return "", err
	}
	return s.pages[url], nil
}

func (s *scriptedSession) Close() error { s.closed++; return nil }

type oneSession struct {
	s   *scriptedSession
	err error
}

func (p oneSession) Acquire(ctx context.Context) (domain.Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.s, nil
}

const target = "https://www.flipkart.com/phone-x/product-reviews/itm1?pid=ABC"

func TestSource_PageCount(t *testing.T) {
	sess := &scriptedSession{pages: map[string]string{target: paginationPage}}
	src := NewSource(DefaultProfile(), oneSession{s: sess}, time.Second, time.Second)
	if n := src.PageCount(context.Background(), target); n != 1234 {
		t.Fatalf("page count = %d", n)
	}
	if sess.closed != 1 {
		t.Fatalf("expected discovery session closed, got %d", sess.closed)
	}
}

func TestSource_PageCountFailsSoft(t *testing.T) {
	cases := map[string]oneSession{
		"acquire": {err: errors.New("no browser")},
		"load":    {s: &scriptedSession{errs: map[string]error{target: errors.New("navigation failed")}}},
		"marker":  {s: &scriptedSession{pages: map[string]string{target: "<html></html>"}}},
	}
	for name, prov := range cases {
		t.Run(name, func(t *testing.T) {
			src := NewSource(DefaultProfile(), prov, time.Second, time.Second)
			if n := src.PageCount(context.Background(), target); n != 1 {
				t.Fatalf("page count = %d, want 1", n)
			}
		})
	}
}

func TestSource_FetchPage(t *testing.T) {
	p := DefaultProfile()
	page1, page2, page3, page4 := p.PageURL(target, 1), p.PageURL(target, 2), p.PageURL(target, 3), p.PageURL(target, 4)
	sess := &scriptedSession{
		pages: map[string]string{page1: reviewPage},
		errs: map[string]error{
			page2: domain.ErrNotFound,
			page3: context.DeadlineExceeded,
			page4: errors.New("connection reset"),
		},
	}
	src := NewSource(p, oneSession{s: sess}, time.Second, time.Second)
	ctx := context.Background()

	if rs, err := src.FetchPage(ctx, sess, target, 1); err != nil || len(rs) != 2 {
		t.Fatalf("page 1: %d reviews, %v", len(rs), err)
	}
	if rs, err := src.FetchPage(ctx, sess, target, 2); err != nil || rs != nil {
		t.Fatalf("page 2: expected empty, got %v, %v", rs, err)
	}
	if rs, err := src.FetchPage(ctx, sess, target, 3); err != nil || rs != nil {
		t.Fatalf("page 3: expected timeout to be empty, got %v, %v", rs, err)
	}
	if _, err := src.FetchPage(ctx, sess, target, 4); err == nil {
		t.Fatalf("page 4: expected retryable error")
	}
}
