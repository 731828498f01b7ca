package models

import (
	"encoding/json"
	"fmt"
)

// QualityTier classifies a recovered test entry by how much of the original
// logic survived extraction. Higher values mean more of the generated logic
// was preserved verbatim.
type QualityTier int

const (
	// TierPlaceholder indicates the body is fully synthetic; nothing usable
	// could be recovered from the generated text.
	TierPlaceholder QualityTier = iota
	// TierSalvaged indicates fragments were recovered by aggressive or
	// lenient extraction and may be incomplete.
	TierSalvaged
	// TierRecovered indicates the body was rebuilt by depth-tracked scanning
	// of imperfect but mostly intact text.
	TierRecovered
	// TierVerified indicates the body was extracted from well-formed text by
	// the exact-match stage.
	TierVerified
)

var tierNames = map[QualityTier]string{
	TierPlaceholder: "placeholder",
	TierSalvaged:    "salvaged",
	TierRecovered:   "recovered",
	TierVerified:    "verified",
}

// String returns the human-readable tier name.
func (q QualityTier) String() string {
	if name, ok := tierNames[q]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(q))
}

// Valid returns true if the tier is a known value.
func (q QualityTier) Valid() bool {
	_, ok := tierNames[q]
	return ok
}

// AtLeast reports whether the tier preserves at least as much original logic
// as other. Used when deciding whether a batch needs the low-trust banner.
func (q QualityTier) AtLeast(other QualityTier) bool {
	return q >= other
}

// MarshalJSON encodes the tier as its string name.
func (q QualityTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON decodes a tier from its string name.
func (q *QualityTier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for tier, name := range tierNames {
		if name == s {
			*q = tier
			return nil
		}
	}
	return fmt.Errorf("unknown quality tier %q", s)
}
