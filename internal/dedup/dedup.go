// Package dedup rejects candidate entries that duplicate, or nearly
// duplicate, entries already accepted in the session. Identity is a
// normalized (name, body) signature; near-duplicates are caught by fuzzy
// name similarity over a configurable threshold.
package dedup

import (
	"fmt"
	"log"
	"strings"
	"unicode"

	"testmend/pkg/models"
)

// DefaultSimilarityThreshold is the fuzzy name similarity above which a
// candidate is rejected. The value is a tunable with no first-principles
// derivation; 0.8 catches single-word renames without rejecting genuinely
// different tests.
const DefaultSimilarityThreshold = 0.8

// Set is the active signature set one deduplication pass compares against.
// Accepted candidates join the set immediately so later candidates in the
// same batch are checked against them too.
type Set struct {
	threshold float64
	names     []string
	nameSet   map[string]struct{}
	pairSet   map[string]struct{}
	rejected  int
}

// NewSet creates a signature set seeded from the given corpus entries.
func NewSet(threshold float64, corpus []models.CandidateEntry) *Set {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	s := &Set{
		threshold: threshold,
		nameSet:   make(map[string]struct{}),
		pairSet:   make(map[string]struct{}),
	}
	for _, e := range corpus {
		s.admit(e)
	}
	return s
}

// Filter returns the candidates that are not duplicates of the set's
// contents, admitting each survivor as it goes.
func (s *Set) Filter(candidates []models.CandidateEntry) []models.CandidateEntry {
	accepted := make([]models.CandidateEntry, 0, len(candidates))
	for _, c := range candidates {
		if reason := s.duplicateReason(c); reason != "" {
			s.rejected++
			log.Printf("[dedup] rejected %q: %s", c.Name, reason)
			continue
		}
		s.admit(c)
		accepted = append(accepted, c)
	}
	return accepted
}

// Admit adds an entry to the set without filtering. Used when previously
// accepted entries join the comparison baseline.
func (s *Set) Admit(e models.CandidateEntry) {
	s.admit(e)
}

// Rejected returns how many candidates this set has rejected.
func (s *Set) Rejected() int {
	return s.rejected
}

// IsDuplicate reports whether the candidate would be rejected, without
// mutating the set.
func (s *Set) IsDuplicate(c models.CandidateEntry) bool {
	return s.duplicateReason(c) != ""
}

func (s *Set) duplicateReason(c models.CandidateEntry) string {
	name := NormalizeName(c.Name)
	pair := name + "\x00" + NormalizeBody(c.Body)

	if _, ok := s.pairSet[pair]; ok {
		return "identical name and body"
	}
	if _, ok := s.nameSet[name]; ok {
		return "identical normalized name"
	}
	for _, existing := range s.names {
		if sim := Similarity(name, existing); sim > s.threshold {
			return fmt.Sprintf("near-duplicate name (similarity %.2f)", sim)
		}
	}
	return ""
}

func (s *Set) admit(e models.CandidateEntry) {
	name := NormalizeName(e.Name)
	pair := name + "\x00" + NormalizeBody(e.Body)
	if _, ok := s.nameSet[name]; !ok {
		s.nameSet[name] = struct{}{}
		s.names = append(s.names, name)
	}
	s.pairSet[pair] = struct{}{}
}

// NormalizeName case-folds a name and strips everything that is not a letter
// or digit.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// NormalizeBody collapses all whitespace runs to single spaces and trims the
// ends, so formatting differences do not defeat exact-pair matching.
func NormalizeBody(body string) string {
	return strings.Join(strings.Fields(body), " ")
}

// Similarity is 1 - editDistance/max(len(a), len(b)). Two empty strings are
// fully similar. The measure is symmetric.
func Similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return 1 - float64(editDistance(a, b))/float64(longest)
}

// editDistance is the standard dynamic-programming Levenshtein distance,
// kept to two rolling rows.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
