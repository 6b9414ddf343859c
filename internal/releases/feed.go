// Package releases reads the agency's news-release RSS feed so callers can
// tell whether a survey has published since their last fetch.
package releases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Release is one published news release.
type Release struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
}

// Recent returns releases from the feed published within the lookback
// window, newest first.
func Recent(ctx context.Context, feedURL string, lookback time.Duration) ([]Release, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing release feed %s: %w", feedURL, err)
	}
	return filterRecent(feed, time.Now().Add(-lookback)), nil
}

// Parse reads a feed from raw content; used by tests and by callers that
// fetch the feed themselves.
func Parse(raw string, since time.Time) ([]Release, error) {
	feed, err := gofeed.NewParser().ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing release feed: %w", err)
	}
	return filterRecent(feed, since), nil
}

func filterRecent(feed *gofeed.Feed, since time.Time) []Release {
	var out []Release
	for _, item := range feed.Items {
		if item.PublishedParsed == nil || item.PublishedParsed.Before(since) {
			continue
		}
		out = append(out, Release{
			Title:       strings.TrimSpace(item.Title),
			Link:        item.Link,
			PublishedAt: *item.PublishedParsed,
		})
	}
	// Feed order is newest-first already; keep it
	return out
}

// MentionsSurvey reports whether a release title names the given survey.
// Matching is a case-insensitive substring check against the survey's
// human-readable name.
func MentionsSurvey(r Release, surveyName string) bool {
	return strings.Contains(strings.ToLower(r.Title), strings.ToLower(surveyName))
}
