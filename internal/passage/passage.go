package passage

import (
	"fmt"
	"strconv"
	"strings"
)

// SourceType categorizes how a document was produced.
type SourceType string

const (
	TypePeerReviewed  SourceType = "peer_reviewed"
	TypeClinicalTrial SourceType = "clinical_trial"
	TypeMetaAnalysis  SourceType = "meta_analysis"
	TypeCorpus        SourceType = "corpus"
	TypeUserUpload    SourceType = "user_upload"
)

// PriorityLive marks a document that was fetched live from an upstream API
// rather than resolved from a cached corpus entry.
const PriorityLive = "live"

// Metadata holds the recognized structured fields of a passage plus an open
// side-table for anything a connector attaches beyond them.
type Metadata struct {
	Source        string     // origin identifier, e.g. "pubmed_articles"
	SourceID      string     // stable external id (PMID, accession, ...)
	SourceType    SourceType // peer_reviewed, clinical_trial, ...
	ChunkID       string     // set when the passage is a chunk of a larger document
	Date          string     // ISO-8601 publication date; empty when unknown
	CitationCount int
	ImpactFactor  float64
	Priority      string // "live" for live-fetched documents
	URL           string
	Extra         map[string]string // unrecognized connector fields
}

// Passage is a unit of retrievable evidence text. Passages are constructed
// fresh per query and are not mutated after scoring.
type Passage struct {
	Content string
	Meta    Metadata
}

// TokenCount is the whitespace-token estimate used for context budgeting.
// It is a cheap proxy, not a real tokenizer.
func (p Passage) TokenCount() int {
	return len(strings.Fields(p.Content))
}

// ToMap flattens the metadata into a string map, recognized fields first,
// then the side-table. Used for provenance records and the vector store.
func (m Metadata) ToMap() map[string]string {
	out := map[string]string{
		"source":      m.Source,
		"source_id":   m.SourceID,
		"source_type": string(m.SourceType),
	}
	if m.ChunkID != "" {
		out["chunk_id"] = m.ChunkID
	}
	if m.Date != "" {
		out["date"] = m.Date
	}
	if m.CitationCount > 0 {
		out["citation_count"] = strconv.Itoa(m.CitationCount)
	}
	if m.ImpactFactor > 0 {
		out["impact_factor"] = strconv.FormatFloat(m.ImpactFactor, 'f', -1, 64)
	}
	if m.Priority != "" {
		out["priority"] = m.Priority
	}
	if m.URL != "" {
		out["url"] = m.URL
	}
	for k, v := range m.Extra {
		if _, taken := out[k]; !taken {
			out[k] = v
		}
	}
	return out
}

// MetadataFromMap rebuilds a Metadata from its flattened form. Unrecognized
// keys land in Extra.
func MetadataFromMap(m map[string]string) Metadata {
	meta := Metadata{
		Source:     m["source"],
		SourceID:   m["source_id"],
		SourceType: SourceType(m["source_type"]),
		ChunkID:    m["chunk_id"],
		Date:       m["date"],
		Priority:   m["priority"],
		URL:        m["url"],
	}
	if v := m["citation_count"]; v != "" {
		meta.CitationCount, _ = strconv.Atoi(v)
	}
	if v := m["impact_factor"]; v != "" {
		meta.ImpactFactor, _ = strconv.ParseFloat(v, 64)
	}
	recognized := map[string]bool{
		"source": true, "source_id": true, "source_type": true,
		"chunk_id": true, "date": true, "citation_count": true,
		"impact_factor": true, "priority": true, "url": true,
	}
	for k, v := range m {
		if recognized[k] {
			continue
		}
		if meta.Extra == nil {
			meta.Extra = make(map[string]string)
		}
		meta.Extra[k] = v
	}
	return meta
}

// Label returns a short human-readable identifier for logging.
func (m Metadata) Label() string {
	if m.SourceID != "" {
		return fmt.Sprintf("%s/%s", m.Source, m.SourceID)
	}
	return m.Source
}
