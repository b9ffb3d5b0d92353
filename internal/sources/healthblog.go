package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/biomindlabs/biorag/internal/passage"
)

const defaultHealthBlogFeedURL = "https://blog.google/technology/health/rss/"

// HealthBlogSource reads the Google Health blog RSS feed. The feed is not
// searchable, so the query is applied client-side as a keyword filter over
// title and description.
type HealthBlogSource struct {
	feedURL string
	client  *http.Client
}

func NewHealthBlogSource() *HealthBlogSource {
	return &HealthBlogSource{
		feedURL: defaultHealthBlogFeedURL,
		client:  newHTTPClient(),
	}
}

func (s *HealthBlogSource) Name() string {
	return "google_health_blog"
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

func (s *HealthBlogSource) Fetch(ctx context.Context, query string, limit int) ([]passage.Passage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("health blog request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health blog fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("health blog returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parse health blog feed: %w", err)
	}

	keywords := keywordize(query)

	passages := make([]passage.Passage, 0, limit)
	for _, item := range feed.Channel.Items {
		if item.Title == "" {
			continue
		}
		if !matchesAnyKeyword(item.Title+" "+item.Description, keywords) {
			continue
		}

		content := item.Title
		if item.Description != "" {
			content += ". " + item.Description
		}

		passages = append(passages, passage.Passage{
			Content: content,
			Meta: passage.Metadata{
				Source:   s.Name(),
				SourceID: postID(item.Title),
				Date:     parseRSSDate(item.PubDate),
				Priority: passage.PriorityLive,
				URL:      item.Link,
				Extra:    map[string]string{"title": item.Title},
			},
		})
		if len(passages) == limit {
			break
		}
	}
	return passages, nil
}

// matchesAnyKeyword reports whether any keyword occurs in the text. An
// empty keyword list matches everything.
func matchesAnyKeyword(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// postID derives a stable identifier from a post title. Truncation is on
// rune boundaries so multi-byte titles stay valid UTF-8.
func postID(title string) string {
	id := []rune(strings.ReplaceAll(title, " ", "_"))
	if len(id) > 50 {
		id = id[:50]
	}
	return string(id)
}

// parseRSSDate converts RFC 1123 style feed dates to ISO form.
func parseRSSDate(pubDate string) string {
	pubDate = strings.TrimSpace(pubDate)
	if pubDate == "" {
		return ""
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, pubDate); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return pubDate
}
