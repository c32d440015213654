package domain

import "time"

type RelatedItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Report is the aggregate returned for one analysed product.
type Report struct {
	ProductID      string         `json:"ProductID"`
	Reviews        []ScoredReview `json:"Reviews"`
	Summary        string         `json:"Summary"`
	ReviewsScraped int            `json:"ReviewsScraped"`
	SentimentScore int            `json:"SentimentScore"` // mean sentiment, percent
	FinalScore     int            `json:"FinalScore"`     // mean final score, percent
	UserSentiment  string         `json:"UserSentiment"`
	FakeRatio      int            `json:"FakeRatio"` // share of reviews with plag > 0.5, percent
	RelatedItems   []RelatedItem  `json:"RelatedItems"`
	GeneratedAt    time.Time      `json:"GeneratedAt"`
}
