package producer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"go-feed-cache/internal/interfaces"
)

// Ensure Feed implements interfaces.Producer
var _ interfaces.Producer = (*Feed)(nil)

// Feed parses an RSS, Atom or JSON feed into a FeedResult
type Feed struct {
	*fetcher
	maxItems int
}

// FeedResult is the cached shape of a parsed feed
type FeedResult struct {
	Title string     `json:"title"`
	Link  string     `json:"link"`
	Items []FeedItem `json:"items"`
}

// FeedItem is one entry of a FeedResult
type FeedItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
}

// Produce fetches and parses the feed
func (p *Feed) Produce(ctx context.Context) (any, error) {
	body, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed from %s: %w", p.url, err)
	}

	result := FeedResult{
		Title: parsed.Title,
		Link:  parsed.Link,
		Items: make([]FeedItem, 0, min(len(parsed.Items), p.maxItems)),
	}
	for _, item := range parsed.Items {
		if len(result.Items) == p.maxItems {
			break
		}
		result.Items = append(result.Items, FeedItem{
			Title:     item.Title,
			Link:      item.Link,
			Published: published(item),
			Summary:   item.Description,
		})
	}
	return result, nil
}

// published prefers the parsed timestamp, normalised to RFC 3339
func published(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	return item.Published
}
