package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/biomindlabs/biorag/internal/passage"
)

const defaultPubMedBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedSource fetches article summaries from PubMed via the NCBI
// E-utilities: esearch resolves the query to PMIDs, esummary fetches the
// records in one batch.
type PubMedSource struct {
	baseURL string
	email   string
	client  *http.Client
}

// NewPubMedSource creates a PubMed connector. email is attached to requests
// as NCBI asks of automated clients; it may be empty.
func NewPubMedSource(email string) *PubMedSource {
	return &PubMedSource{
		baseURL: defaultPubMedBaseURL,
		email:   email,
		client:  newHTTPClient(),
	}
}

func (s *PubMedSource) Name() string {
	return "pubmed_articles"
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryRecord struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	PubDate string `json:"pubdate"`
}

type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

func (s *PubMedSource) Fetch(ctx context.Context, query string, limit int) ([]passage.Passage, error) {
	pmids, err := s.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return nil, nil
	}
	return s.summaries(ctx, pmids)
}

func (s *PubMedSource) search(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {fmt.Sprintf("%d", limit)},
		"retmode": {"json"},
	}
	if s.email != "" {
		params.Set("email", s.email)
	}

	var resp esearchResponse
	if err := s.getJSON(ctx, "/esearch.fcgi", params, &resp); err != nil {
		return nil, fmt.Errorf("pubmed search: %w", err)
	}
	return resp.ESearchResult.IDList, nil
}

func (s *PubMedSource) summaries(ctx context.Context, pmids []string) ([]passage.Passage, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"json"},
	}
	if s.email != "" {
		params.Set("email", s.email)
	}

	var resp esummaryResponse
	if err := s.getJSON(ctx, "/esummary.fcgi", params, &resp); err != nil {
		return nil, fmt.Errorf("pubmed summaries: %w", err)
	}

	passages := make([]passage.Passage, 0, len(pmids))
	for _, pmid := range pmids {
		raw, ok := resp.Result[pmid]
		if !ok {
			continue
		}
		var rec esummaryRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Title == "" {
			continue
		}

		content := rec.Title
		if rec.Source != "" {
			content += " (" + rec.Source + ")"
		}

		passages = append(passages, passage.Passage{
			Content: content,
			Meta: passage.Metadata{
				Source:     s.Name(),
				SourceID:   "PMID:" + pmid,
				SourceType: passage.TypePeerReviewed,
				Date:       parsePubDate(rec.PubDate),
				Priority:   passage.PriorityLive,
				URL:        "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/",
			},
		})
	}
	return passages, nil
}

func (s *PubMedSource) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// parsePubDate converts PubMed's "2024 Jan 15" style dates to ISO form.
// Unrecognized formats are passed through; downstream scoring treats them
// as undated.
func parsePubDate(pubdate string) string {
	pubdate = strings.TrimSpace(pubdate)
	if pubdate == "" {
		return ""
	}
	for _, layout := range []string{"2006 Jan 2", "2006 Jan", "2006"} {
		if t, err := time.Parse(layout, pubdate); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return pubdate
}
