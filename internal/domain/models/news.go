package models

import "time"

// NewsItem is a headline from the news feed.
type NewsItem struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewsDigest is a batch of headlines with the sentiment scored from them.
type NewsDigest struct {
	Items     []NewsItem      `json:"items"`
	Sentiment SentimentResult `json:"sentiment"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Titles returns the headline texts of the digest.
func (d NewsDigest) Titles() []string {
	out := make([]string, 0, len(d.Items))
	for _, it := range d.Items {
		if it.Title != "" {
			out = append(out, it.Title)
		}
	}
	return out
}
