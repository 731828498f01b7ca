package models

// DefaultTargetCount is the number of entries a full output batch carries.
const DefaultTargetCount = 12

// BatchMetadata records how a batch was produced across generation rounds.
type BatchMetadata struct {
	// Attempts is the number of external generator calls issued.
	Attempts int `json:"attempts" yaml:"attempts"`
	// YieldPerAttempt is, for each attempt, the fraction of that attempt's
	// candidates that survived deduplication.
	YieldPerAttempt []float64 `json:"yield_per_attempt" yaml:"yield_per_attempt"`
	// DuplicatesRemoved counts candidates rejected as duplicates across all
	// attempts.
	DuplicatesRemoved int `json:"duplicates_removed" yaml:"duplicates_removed"`
	// VariationsUsed counts entries filled in by the variation synthesizer.
	VariationsUsed int `json:"variations_used" yaml:"variations_used"`
}

// OutputBatch is the ordered result of one generate call.
type OutputBatch struct {
	// Entries are the accepted test entries, at most the target count.
	Entries []CandidateEntry `json:"entries" yaml:"-"`
	// Metadata describes the rounds that produced the batch.
	Metadata BatchMetadata `json:"metadata" yaml:"metadata"`
	// Text is the reconstructed test file for the batch.
	Text string `json:"text" yaml:"-"`
}

// Full reports whether the batch reached the given target count.
func (b *OutputBatch) Full(target int) bool {
	return len(b.Entries) >= target
}

// LowestTier returns the lowest quality tier present in the batch.
// Returns TierVerified for an empty batch.
func (b *OutputBatch) LowestTier() QualityTier {
	lowest := TierVerified
	for _, e := range b.Entries {
		if e.Tier < lowest {
			lowest = e.Tier
		}
	}
	return lowest
}

// Names returns the entry names in batch order.
func (b *OutputBatch) Names() []string {
	names := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		names[i] = e.Name
	}
	return names
}
