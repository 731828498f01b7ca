package dedup

import (
	"testing"

	"testmend/pkg/models"
)

func entry(name, body string) models.CandidateEntry {
	return models.NewCandidateEntry(name, body, models.TierVerified)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"adds positive numbers", "addspositivenumbers"},
		{"Adds_Positive-Numbers!", "addspositivenumbers"},
		{"handles 2 items", "handles2items"},
		{"", ""},
		{"___", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeBody(t *testing.T) {
	in := "  expect(add(1, 2))\n\t.toBe(3);\n\n"
	want := "expect(add(1, 2)) .toBe(3);"
	if got := NormalizeBody(in); got != want {
		t.Errorf("NormalizeBody = %q, want %q", got, want)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"addspositivenumbers", "addpositivenumbers"},
		{"", "abc"},
		{"kitten", "sitting"},
		{"same", "same"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarity_Values(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"same", "same", 1},
		{"", "", 1},
		{"abc", "", 0},
		{"abcd", "abce", 0.75},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSet_ExactResubmissionRejected(t *testing.T) {
	e := entry("adds positive numbers", "expect(add(1, 2)).toBe(3);")
	set := NewSet(DefaultSimilarityThreshold, []models.CandidateEntry{e})

	resubmitted := entry("adds positive numbers", "expect(add(1, 2)).toBe(3);")
	accepted := set.Filter([]models.CandidateEntry{resubmitted})

	if len(accepted) != 0 {
		t.Errorf("resubmitting a corpus entry must yield zero acceptances, got %d", len(accepted))
	}
	if set.Rejected() != 1 {
		t.Errorf("Rejected() = %d, want 1", set.Rejected())
	}
}

func TestSet_NearIdenticalNameRejected(t *testing.T) {
	// "addsPositiveNumbers" vs "addPositiveNumbers": one edit across 19
	// normalized characters, similarity well above 0.8.
	corpus := []models.CandidateEntry{entry("addsPositiveNumbers", "expect(add(1, 2)).toBe(3);")}
	set := NewSet(DefaultSimilarityThreshold, corpus)

	candidate := entry("addPositiveNumbers", "expect(add(4, 5)).toBe(9);")
	if !set.IsDuplicate(candidate) {
		t.Error("near-identical name should be rejected as duplicate")
	}
}

func TestSet_DistinctNamesAccepted(t *testing.T) {
	corpus := []models.CandidateEntry{entry("adds positive numbers", "expect(add(1, 2)).toBe(3);")}
	set := NewSet(DefaultSimilarityThreshold, corpus)

	candidates := []models.CandidateEntry{
		entry("divides by zero throws", "expect(() => divide(1, 0)).toThrow();"),
		entry("finds maximum of list", "expect(findMax([1, 9, 3])).toBe(9);"),
	}
	accepted := set.Filter(candidates)

	if len(accepted) != 2 {
		t.Fatalf("accepted %d, want 2", len(accepted))
	}
}

func TestSet_IntraBatchDuplicates(t *testing.T) {
	// The second candidate duplicates the first within the same batch; the
	// set must compare against already-accepted candidates, not only the
	// seeded corpus.
	set := NewSet(DefaultSimilarityThreshold, nil)

	candidates := []models.CandidateEntry{
		entry("validates email format", "expect(isValidEmail('a@b.c')).toBe(true);"),
		entry("Validates Email Format", "expect(isValidEmail('x@y.z')).toBe(true);"),
	}
	accepted := set.Filter(candidates)

	if len(accepted) != 1 {
		t.Fatalf("accepted %d, want 1", len(accepted))
	}
	if accepted[0].Name != "validates email format" {
		t.Errorf("wrong survivor: %q", accepted[0].Name)
	}
}

func TestSet_BodyDifferenceDoesNotRescueSameName(t *testing.T) {
	set := NewSet(DefaultSimilarityThreshold, []models.CandidateEntry{
		entry("computes factorial", "expect(factorial(4)).toBe(24);"),
	})

	candidate := entry("computes factorial", "expect(factorial(5)).toBe(120);")
	if !set.IsDuplicate(candidate) {
		t.Error("same normalized name with different body must still be rejected")
	}
}
