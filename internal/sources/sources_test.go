package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/biomindlabs/biorag/internal/passage"
)

func TestPubMedFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/esearch.fcgi"):
			if got := r.URL.Query().Get("term"); got != "cancer immunotherapy" {
				t.Errorf("esearch term = %q", got)
			}
			w.Write([]byte(`{"esearchresult":{"idlist":["11111","22222"]}}`))
		case strings.HasPrefix(r.URL.Path, "/esummary.fcgi"):
			if got := r.URL.Query().Get("id"); got != "11111,22222" {
				t.Errorf("esummary id = %q", got)
			}
			w.Write([]byte(`{"result":{
				"uids":["11111","22222"],
				"11111":{"uid":"11111","title":"CAR-T therapy outcomes","source":"Nature Medicine","pubdate":"2024 Mar 5"},
				"22222":{"uid":"22222","title":"Checkpoint inhibitor review","source":"Cell","pubdate":"2023"}
			}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	src := NewPubMedSource("test@example.com")
	src.baseURL = server.URL

	got, err := src.Fetch(context.Background(), "cancer immunotherapy", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d passages, want 2", len(got))
	}

	first := got[0]
	if first.Content != "CAR-T therapy outcomes (Nature Medicine)" {
		t.Errorf("content = %q", first.Content)
	}
	if first.Meta.SourceID != "PMID:11111" {
		t.Errorf("source id = %q", first.Meta.SourceID)
	}
	if first.Meta.Source != "pubmed_articles" {
		t.Errorf("source = %q", first.Meta.Source)
	}
	if first.Meta.SourceType != passage.TypePeerReviewed {
		t.Errorf("source type = %q", first.Meta.SourceType)
	}
	if first.Meta.Priority != passage.PriorityLive {
		t.Errorf("priority = %q", first.Meta.Priority)
	}
	if first.Meta.Date != "2024-03-05" {
		t.Errorf("date = %q", first.Meta.Date)
	}
	if got[1].Meta.Date != "2023-01-01" {
		t.Errorf("year-only date = %q", got[1].Meta.Date)
	}
}

func TestPubMedFetchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"esearchresult":{"idlist":[]}}`))
	}))
	defer server.Close()

	src := NewPubMedSource("")
	src.baseURL = server.URL

	got, err := src.Fetch(context.Background(), "nonexistent topic", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d passages, want 0", len(got))
	}
}

func TestPubMedFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := NewPubMedSource("")
	src.baseURL = server.URL

	if _, err := src.Fetch(context.Background(), "query", 5); err == nil {
		t.Error("expected error on HTTP 429")
	}
}

func TestUniProtFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Entry\tProtein names\tGene Names\n" +
			"P04637\tCellular tumor antigen p53\tTP53\n" +
			"P38398\tBreast cancer type 1 susceptibility protein\tBRCA1\n"))
	}))
	defer server.Close()

	src := NewUniProtSource()
	src.baseURL = server.URL

	got, err := src.Fetch(context.Background(), "TP53 cancer", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d passages, want 2", len(got))
	}
	if got[0].Meta.SourceID != "P04637" {
		t.Errorf("source id = %q", got[0].Meta.SourceID)
	}
	if want := "Protein: Cellular tumor antigen p53. Genes: TP53"; got[0].Content != want {
		t.Errorf("content = %q, want %q", got[0].Content, want)
	}
	if got[0].Meta.Extra["genes"] != "TP53" {
		t.Errorf("genes extra = %q", got[0].Meta.Extra["genes"])
	}
}

func TestUniProtFallbackQuery(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		queries = append(queries, q)
		if len(queries) == 1 {
			// Verbatim query finds nothing: header only.
			w.Write([]byte("Entry\tProtein names\tGene Names\n"))
			return
		}
		w.Write([]byte("Entry\tProtein names\tGene Names\nP04637\tCellular tumor antigen p53\tTP53\n"))
	}))
	defer server.Close()

	src := NewUniProtSource()
	src.baseURL = server.URL

	got, err := src.Fetch(context.Background(), "what is the latest research on tp53 and apoptosis", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d passages, want 1", len(got))
	}
	if len(queries) != 2 {
		t.Fatalf("got %d queries, want 2", len(queries))
	}

	fallback := queries[1]
	if !strings.Contains(fallback, "reviewed:true") || !strings.Contains(fallback, "organism_id:9606") {
		t.Errorf("fallback query missing constraints: %q", fallback)
	}
	for _, stop := range []string{"what", "latest", "research"} {
		if strings.Contains(fallback, stop) {
			t.Errorf("fallback query contains stopword %q: %q", stop, fallback)
		}
	}
	if !strings.Contains(fallback, "tp53") || !strings.Contains(fallback, "apoptosis") {
		t.Errorf("fallback query missing keywords: %q", fallback)
	}
}

func TestKeywordize(t *testing.T) {
	got := keywordize("What are the latest research on BRCA1 and breast cancer?")
	want := []string{"brca1", "breast", "cancer"}
	if len(got) != len(want) {
		t.Fatalf("keywordize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDrugBankFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "test-key" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{"drugs":[
			{"drugbank_id":"DB00945","name":"Aspirin","description":"Salicylate used to treat pain."}
		]}`))
	}))
	defer server.Close()

	src := NewDrugBankSource("test-key")
	src.baseURL = server.URL

	got, err := src.Fetch(context.Background(), "aspirin", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d passages, want 1", len(got))
	}
	if got[0].Meta.SourceID != "DB00945" {
		t.Errorf("source id = %q", got[0].Meta.SourceID)
	}
	if got[0].Meta.Source != "drugbank_entries" {
		t.Errorf("source = %q", got[0].Meta.Source)
	}
	if want := "Aspirin: Salicylate used to treat pain."; got[0].Content != want {
		t.Errorf("content = %q, want %q", got[0].Content, want)
	}
}

func TestDrugBankWithoutAPIKeyFetchesNothing(t *testing.T) {
	src := NewDrugBankSource("")
	got, err := src.Fetch(context.Background(), "aspirin", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil result, got %v", got)
	}
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Google Health</title>
    <item>
      <title>New AI model for protein structure</title>
      <link>https://blog.google/technology/health/protein-ai/</link>
      <description>Research on protein folding.</description>
      <pubDate>Mon, 10 Jun 2024 09:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Fitness tracking update</title>
      <link>https://blog.google/technology/health/fitness/</link>
      <description>Step counting improvements.</description>
      <pubDate>Tue, 11 Jun 2024 09:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestHealthBlogFetchFiltersByKeyword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	src := NewHealthBlogSource()
	src.feedURL = server.URL

	got, err := src.Fetch(context.Background(), "protein structure prediction", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d passages, want 1", len(got))
	}
	if got[0].Meta.URL != "https://blog.google/technology/health/protein-ai/" {
		t.Errorf("url = %q", got[0].Meta.URL)
	}
	if got[0].Meta.Date != "2024-06-10" {
		t.Errorf("date = %q", got[0].Meta.Date)
	}
	if got[0].Meta.Source != "google_health_blog" {
		t.Errorf("source = %q", got[0].Meta.Source)
	}
}

func TestHealthBlogRespectsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	src := NewHealthBlogSource()
	src.feedURL = server.URL

	// Keywords matching both items, limit 1.
	got, err := src.Fetch(context.Background(), "protein fitness", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d passages, want 1", len(got))
	}
}

func TestPostIDTruncatesOnRuneBoundary(t *testing.T) {
	// 60 two-byte runes; a byte-level cut at 50 would split a rune.
	title := strings.Repeat("é", 60)
	id := postID(title)
	if !utf8.ValidString(id) {
		t.Errorf("postID produced invalid UTF-8: %q", id)
	}
	if n := utf8.RuneCountInString(id); n != 50 {
		t.Errorf("truncated to %d runes, want 50", n)
	}

	if got := postID("AI for health screening"); got != "AI_for_health_screening" {
		t.Errorf("postID = %q", got)
	}
}
