package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/biomindlabs/biorag/internal/passage"
)

const defaultDrugBankBaseURL = "https://api.drugbank.com/v1"

// DrugBankSource fetches drug records from the DrugBank search API. An API
// key is required by the service; a source constructed without one fetches
// nothing rather than erroring, so an unconfigured key just disables the
// source.
type DrugBankSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewDrugBankSource(apiKey string) *DrugBankSource {
	return &DrugBankSource{
		baseURL: defaultDrugBankBaseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(),
	}
}

func (s *DrugBankSource) Name() string {
	return "drugbank_entries"
}

type drugbankDrug struct {
	DrugBankID  string `json:"drugbank_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type drugbankSearchResponse struct {
	Drugs []drugbankDrug `json:"drugs"`
}

func (s *DrugBankSource) Fetch(ctx context.Context, query string, limit int) ([]passage.Passage, error) {
	if s.apiKey == "" {
		return nil, nil
	}

	params := url.Values{
		"q":     {query},
		"limit": {fmt.Sprintf("%d", limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/drugs?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("drugbank request: %w", err)
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drugbank search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("drugbank returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp drugbankSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode drugbank response: %w", err)
	}

	passages := make([]passage.Passage, 0, len(apiResp.Drugs))
	for _, drug := range apiResp.Drugs {
		if drug.Name == "" {
			continue
		}
		content := drug.Name
		if drug.Description != "" {
			content += ": " + drug.Description
		}
		passages = append(passages, passage.Passage{
			Content: content,
			Meta: passage.Metadata{
				Source:   s.Name(),
				SourceID: drug.DrugBankID,
				Priority: passage.PriorityLive,
				URL:      "https://go.drugbank.com/drugs/" + drug.DrugBankID,
				Extra:    map[string]string{"name": drug.Name},
			},
		})
	}
	return passages, nil
}
