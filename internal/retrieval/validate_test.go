package retrieval

import (
	"strings"
	"testing"

	"github.com/biomindlabs/biorag/internal/selection"
)

func records(ids ...string) []selection.SourceRecord {
	out := make([]selection.SourceRecord, len(ids))
	for i, id := range ids {
		out[i] = selection.SourceRecord{SourceID: id, Score: 0.8}
	}
	return out
}

func TestValidateFullCoverage(t *testing.T) {
	response := "CAR-T is effective [Source ID: PMID:1] and well tolerated [Source ID: PMID:2] according to recent clinical trial data reviewed here."
	v := Validate(response, records("PMID:1", "PMID:2"))

	if !v.Passed {
		t.Errorf("validation failed: %+v", v)
	}
	if v.SourceCoverage != 1.0 {
		t.Errorf("coverage = %v, want 1.0", v.SourceCoverage)
	}
	if len(v.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", v.Warnings)
	}
}

func TestValidateAllUncitedFails(t *testing.T) {
	response := "This answer cites nothing at all but still has more than fifteen words to avoid the short response warning entirely."
	v := Validate(response, records("PMID:1", "PMID:2", "PMID:3"))

	if v.Passed {
		t.Error("expected validation failure for fully uncited response")
	}
	if v.SourceCoverage != 0 {
		t.Errorf("coverage = %v, want 0", v.SourceCoverage)
	}
	found := false
	for _, w := range v.Warnings {
		if strings.HasPrefix(w, "Many sources were not cited") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, missing uncited warning", v.Warnings)
	}
}

func TestValidateDrugBankLeniency(t *testing.T) {
	// All sources uncited, but a DrugBank source relaxes the threshold and
	// the failure becomes advisory only.
	response := "This answer cites nothing at all but still has more than fifteen words to avoid the short response warning entirely."
	v := Validate(response, records("DB00945", "DB01050"))

	if !v.Passed {
		t.Errorf("DrugBank-heavy context should not fail validation: %+v", v)
	}
	if len(v.Warnings) == 0 {
		t.Error("expected advisory warning for uncited sources")
	}
}

func TestValidatePartialCitation(t *testing.T) {
	response := "Only one source is cited here [Source ID: PMID:1] but the other two available passages are never referenced by the text."
	v := Validate(response, records("PMID:1", "PMID:2", "PMID:3"))

	// 2 of 3 uncited = 0.667, below the 0.7 fail threshold.
	if !v.Passed {
		t.Errorf("validation should pass: %+v", v)
	}
	found := false
	for _, w := range v.Warnings {
		if strings.HasPrefix(w, "Some sources were not cited") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, missing partial-citation warning", v.Warnings)
	}
}

func TestValidateShortResponse(t *testing.T) {
	v := Validate("Too short [Source ID: PMID:1]", records("PMID:1"))

	found := false
	for _, w := range v.Warnings {
		if w == "Response may be too short" {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, missing short-response warning", v.Warnings)
	}
	// Short responses warn but never fail on length alone.
	if !v.Passed {
		t.Errorf("short response should not fail validation: %+v", v)
	}
}

func TestValidateSpeculationMarkers(t *testing.T) {
	response := "The mechanism could be related to kinase signaling [Source ID: PMID:1], and I think the pathway probably involves downstream activation events."
	v := Validate(response, records("PMID:1"))

	markers := 0
	for _, w := range v.Warnings {
		if strings.HasPrefix(w, "Potential speculation detected") {
			markers++
		}
	}
	if markers != 3 { // "could be", "i think", "probably"
		t.Errorf("got %d speculation warnings, want 3 (warnings: %v)", markers, v.Warnings)
	}
}

func TestValidateNoSources(t *testing.T) {
	v := Validate("An answer generated with no provenance records available whatsoever, still long enough to avoid the length warning today.", nil)
	if v.SourceCoverage != 0 {
		t.Errorf("coverage = %v, want 0", v.SourceCoverage)
	}
	if !v.Passed {
		t.Errorf("validation = %+v, want passed", v)
	}
}
