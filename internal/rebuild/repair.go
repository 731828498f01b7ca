package rebuild

import (
	"testmend/internal/balance"
	"testmend/internal/extract"
	"testmend/internal/lang"
	"testmend/pkg/models"
)

// RepairResult is the outcome of one standalone repair pass.
type RepairResult struct {
	// Text is the normalized, balanced test file.
	Text string
	// Entries are the recovered entries, in rendered order.
	Entries []models.CandidateEntry
	// OrphanClosersDropped and ClosersAppended describe the balancing work.
	OrphanClosersDropped int
	ClosersAppended      int
}

// Repair runs the balancer, extractor, and reconstructor over one malformed
// document, without the generation retry loop or corpus deduplication. It is
// total: any input yields a balanced file with at least one entry.
func Repair(raw, suite, framework string) RepairResult {
	profile := lang.Resolve(framework)

	balanced := balance.Balance(raw)
	entries := extract.New(profile).Extract(balanced.Text)
	headers := CollectHeaders(balanced.Text, profile)
	text := New(profile).Build(suite, headers, entries)

	return RepairResult{
		Text:                 text,
		Entries:              orderByTier(entries),
		OrphanClosersDropped: balanced.OrphanClosersDropped,
		ClosersAppended:      balanced.ClosersAppended,
	}
}
