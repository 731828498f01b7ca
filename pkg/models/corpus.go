package models

// Corpus is the append-only history of entries accepted during one working
// session. It exists purely for duplicate suppression: it grows monotonically
// across rounds, never shrinks, and is discarded when the session ends.
type Corpus struct {
	entries []CandidateEntry
	byID    map[string]struct{}
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{byID: make(map[string]struct{})}
}

// Append adds entries to the corpus in order. Entries whose ID is already
// present are skipped, keeping the collection append-only under replays.
func (c *Corpus) Append(entries ...CandidateEntry) {
	for _, e := range entries {
		if _, dup := c.byID[e.ID]; dup {
			continue
		}
		c.byID[e.ID] = struct{}{}
		c.entries = append(c.entries, e)
	}
}

// Entries returns the accepted entries in insertion order. The returned slice
// is a copy; mutating it does not affect the corpus.
func (c *Corpus) Entries() []CandidateEntry {
	out := make([]CandidateEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries in the corpus.
func (c *Corpus) Len() int {
	return len(c.entries)
}
