package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/biomindlabs/biorag/internal/passage"
)

const defaultUniProtBaseURL = "https://rest.uniprot.org/uniprotkb/search"

// UniProtSource fetches protein records from the UniProtKB REST API. The
// query is tried verbatim first; if that returns nothing, it is retried as
// a keyword search restricted to reviewed human proteins, since natural
// language questions rarely match UniProt's query syntax.
type UniProtSource struct {
	baseURL string
	client  *http.Client
}

func NewUniProtSource() *UniProtSource {
	return &UniProtSource{
		baseURL: defaultUniProtBaseURL,
		client:  newHTTPClient(),
	}
}

func (s *UniProtSource) Name() string {
	return "uniprot_records"
}

var uniprotStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"on": true, "in": true, "of": true, "to": true, "for": true,
	"with": true, "by": true, "about": true, "what": true, "are": true,
	"is": true, "how": true, "latest": true, "research": true,
}

var uniprotTokenRe = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9\-]+`)

const uniprotMaxKeywords = 6

func (s *UniProtSource) Fetch(ctx context.Context, query string, limit int) ([]passage.Passage, error) {
	rows, err := s.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		keywords := keywordize(query)
		if len(keywords) == 0 {
			return nil, nil
		}
		smart := fmt.Sprintf("(reviewed:true) AND (organism_id:9606) AND (%s)",
			strings.Join(keywords, " OR "))
		rows, err = s.search(ctx, smart, limit)
		if err != nil {
			return nil, err
		}
	}

	passages := make([]passage.Passage, 0, len(rows))
	for _, row := range rows {
		accession := row["Entry"]
		proteinName := row["Protein names"]
		genes := row["Gene Names"]
		if accession == "" || proteinName == "" {
			continue
		}

		content := "Protein: " + proteinName
		if genes != "" {
			content += ". Genes: " + genes
		}

		passages = append(passages, passage.Passage{
			Content: content,
			Meta: passage.Metadata{
				Source:   s.Name(),
				SourceID: accession,
				Priority: passage.PriorityLive,
				URL:      "https://www.uniprot.org/uniprotkb/" + accession,
				Extra: map[string]string{
					"protein_name": proteinName,
					"genes":        genes,
				},
			},
		})
	}
	return passages, nil
}

// search runs one TSV query and returns the rows keyed by header name.
func (s *UniProtSource) search(ctx context.Context, query string, limit int) ([]map[string]string, error) {
	params := url.Values{
		"query":  {query},
		"format": {"tsv"},
		"fields": {"accession,protein_name,gene_names"},
		"size":   {fmt.Sprintf("%d", limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("uniprot request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uniprot search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("uniprot returned status %d: %s", resp.StatusCode, string(body))
	}

	reader := csv.NewReader(resp.Body)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("uniprot parse tsv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, field := range record {
			if i < len(header) {
				row[header[i]] = field
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// keywordize strips stopwords from a natural language query and keeps the
// first few remaining tokens.
func keywordize(query string) []string {
	tokens := uniprotTokenRe.FindAllString(strings.ToLower(query), -1)
	keywords := make([]string, 0, uniprotMaxKeywords)
	for _, tok := range tokens {
		if uniprotStopwords[tok] {
			continue
		}
		keywords = append(keywords, tok)
		if len(keywords) == uniprotMaxKeywords {
			break
		}
	}
	return keywords
}
