// Package sources implements the live biomedical data connectors. Each
// connector turns an API's response into passages carrying the metadata the
// scoring layer understands.
package sources

import (
	"context"
	"net/http"
	"time"

	"github.com/biomindlabs/biorag/internal/passage"
)

// Source is a live document provider queried at retrieval time.
type Source interface {
	// Name returns the source identifier recorded in passage metadata,
	// e.g. "pubmed_articles".
	Name() string

	// Fetch returns up to limit passages relevant to the query. An empty
	// result with a nil error means the source had nothing for this query.
	Fetch(ctx context.Context, query string, limit int) ([]passage.Passage, error)
}

const defaultTimeout = 15 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
