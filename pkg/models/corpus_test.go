package models

import "testing"

func TestCorpusAppendSkipsKnownIDs(t *testing.T) {
	c := NewCorpus()
	e := NewCandidateEntry("adds numbers", "expect(add(1,2)).toBe(3);", TierVerified)

	c.Append(e)
	c.Append(e)

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCorpusEntriesReturnsCopy(t *testing.T) {
	c := NewCorpus()
	c.Append(
		NewCandidateEntry("first", "a();", TierVerified),
		NewCandidateEntry("second", "b();", TierRecovered),
	)

	entries := c.Entries()
	entries[0].Name = "mutated"

	if got := c.Entries()[0].Name; got != "first" {
		t.Errorf("corpus entry name = %q, want %q", got, "first")
	}

	wantOrder := []string{"first", "second"}
	for i, name := range wantOrder {
		if c.Entries()[i].Name != name {
			t.Errorf("entry %d = %q, want %q", i, c.Entries()[i].Name, name)
		}
	}
}
