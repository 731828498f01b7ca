package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceBlob is one raw external-generator response awaiting repair. It is
// consumed by extraction and never stored.
type SourceBlob struct {
	// Text is the raw generated test source, possibly malformed.
	Text string `json:"text"`
	// Language is the language tag the text was generated for (e.g. "javascript").
	Language string `json:"language"`
}

// Span marks the half-open byte range an entry was extracted from within the
// repaired source blob.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// CandidateEntry is one named test block recovered from generated text.
type CandidateEntry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`
	// Name is the test label as it appeared (or was synthesized) in the text.
	Name string `json:"name"`
	// Body is the test body, brace-balanced but otherwise unmodified.
	Body string `json:"body"`
	// Tier records how much original logic survived extraction.
	Tier QualityTier `json:"tier"`
	// RawSpan is where in the repaired blob the entry came from. Zero for
	// synthesized entries.
	RawSpan Span `json:"raw_span"`
	// AcceptedAt is when the entry was accepted into a batch or corpus.
	AcceptedAt time.Time `json:"accepted_at,omitempty"`
}

// NewCandidateEntry creates an entry with a fresh ID.
func NewCandidateEntry(name, body string, tier QualityTier) CandidateEntry {
	return CandidateEntry{
		ID:   uuid.NewString(),
		Name: name,
		Body: body,
		Tier: tier,
	}
}
