package models

import (
	"encoding/json"
	"testing"
)

func TestQualityTier_Valid(t *testing.T) {
	tests := []struct {
		name string
		tier QualityTier
		want bool
	}{
		{"placeholder is valid", TierPlaceholder, true},
		{"salvaged is valid", TierSalvaged, true},
		{"recovered is valid", TierRecovered, true},
		{"verified is valid", TierVerified, true},
		{"negative is invalid", QualityTier(-1), false},
		{"out of range is invalid", QualityTier(99), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tier.Valid(); got != tt.want {
				t.Errorf("QualityTier(%d).Valid() = %v, want %v", tt.tier, got, tt.want)
			}
		})
	}
}

func TestQualityTier_Ordering(t *testing.T) {
	// The total order reflects declining trust.
	if !TierVerified.AtLeast(TierRecovered) {
		t.Error("verified should rank at least recovered")
	}
	if !TierRecovered.AtLeast(TierSalvaged) {
		t.Error("recovered should rank at least salvaged")
	}
	if !TierSalvaged.AtLeast(TierPlaceholder) {
		t.Error("salvaged should rank at least placeholder")
	}
	if TierPlaceholder.AtLeast(TierVerified) {
		t.Error("placeholder should not rank at least verified")
	}
}

func TestQualityTier_JSONRoundTrip(t *testing.T) {
	for tier := TierPlaceholder; tier <= TierVerified; tier++ {
		data, err := json.Marshal(tier)
		if err != nil {
			t.Fatalf("marshal %v: %v", tier, err)
		}
		var back QualityTier
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != tier {
			t.Errorf("round trip %v = %v", tier, back)
		}
	}
}

func TestQualityTier_UnmarshalUnknown(t *testing.T) {
	var q QualityTier
	if err := json.Unmarshal([]byte(`"pristine"`), &q); err == nil {
		t.Error("expected error for unknown tier name")
	}
}

func TestOutputBatch_LowestTier(t *testing.T) {
	tests := []struct {
		name  string
		tiers []QualityTier
		want  QualityTier
	}{
		{"empty batch reports verified", nil, TierVerified},
		{"all verified", []QualityTier{TierVerified, TierVerified}, TierVerified},
		{"single salvaged pulls batch down", []QualityTier{TierVerified, TierSalvaged, TierVerified}, TierSalvaged},
		{"placeholder dominates", []QualityTier{TierRecovered, TierPlaceholder}, TierPlaceholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := &OutputBatch{}
			for i, tier := range tt.tiers {
				batch.Entries = append(batch.Entries, CandidateEntry{Name: string(rune('a' + i)), Tier: tier})
			}
			if got := batch.LowestTier(); got != tt.want {
				t.Errorf("LowestTier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCorpus_AppendOnly(t *testing.T) {
	c := NewCorpus()
	a := NewCandidateEntry("adds numbers", "expect(add(1, 2)).toBe(3);", TierVerified)
	b := NewCandidateEntry("handles zero", "expect(add(0, 0)).toBe(0);", TierVerified)

	c.Append(a, b)
	c.Append(a) // replay must not duplicate

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	got := c.Entries()
	if got[0].Name != "adds numbers" || got[1].Name != "handles zero" {
		t.Errorf("entries out of insertion order: %v", got)
	}

	// Mutating the returned slice must not affect corpus state.
	got[0].Name = "mutated"
	if c.Entries()[0].Name != "adds numbers" {
		t.Error("Entries() should return a copy")
	}
}
