// Package variation fills an under-target batch by mutating entries already
// accepted into the session corpus. Mutations are deterministic for a fixed
// seed: numeric literals are scaled, string literals pass through small
// synonym tables, and bracketed numeric sequences are resized and refilled.
// Every mutation is re-checked against the full signature set before it is
// allowed into the batch.
package variation

import (
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"testmend/internal/dedup"
	"testmend/pkg/models"
)

// synonyms maps words commonly found in generated test labels and string
// literals to stand-ins, so a variation reads differently from its source.
var synonyms = map[string]string{
	"adds":     "sums",
	"valid":    "wellformed",
	"invalid":  "malformed",
	"empty":    "blank",
	"numbers":  "values",
	"returns":  "yields",
	"handles":  "accepts",
	"positive": "nonnegative",
	"negative": "belowzero",
	"large":    "oversized",
	"small":    "tiny",
}

var (
	intLiteralRe  = regexp.MustCompile(`\b\d+\b`)
	numericListRe = regexp.MustCompile(`\[\s*-?\d+(?:\s*,\s*-?\d+)+\s*\]`)
	stringLitRe   = regexp.MustCompile(`"[^"\n]*"|'[^'\n]*'`)
)

// Synthesizer mutates corpus entries to synthesize batch filler.
type Synthesizer struct {
	rng *rand.Rand
}

// New creates a synthesizer with its own seeded random source, so a generate
// call is reproducible end to end.
func New(seed int64) *Synthesizer {
	return &Synthesizer{rng: rand.New(rand.NewSource(seed))}
}

// Fill produces up to need variation entries from the corpus. Source entries
// are drawn at random without replacement; a mutation that still collides
// with the signature set is discarded and the next source is tried. The
// result may be short when the corpus cannot supply enough distinct
// variations; that is reported, not an error.
func (s *Synthesizer) Fill(need int, corpus []models.CandidateEntry, set *dedup.Set) []models.CandidateEntry {
	if need <= 0 || len(corpus) == 0 {
		return nil
	}

	pool := make([]models.CandidateEntry, len(corpus))
	copy(pool, corpus)
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	var out []models.CandidateEntry
	for _, src := range pool {
		if len(out) >= need {
			break
		}
		mutated := s.Mutate(src)
		if set.IsDuplicate(mutated) {
			log.Printf("[variation] mutation of %q collided, trying next source", src.Name)
			continue
		}
		set.Admit(mutated)
		out = append(out, mutated)
	}

	if len(out) < need {
		log.Printf("[variation] corpus exhausted: produced %d of %d requested variations", len(out), need)
	}
	return out
}

// Mutate derives a new entry from src by renaming it and transforming its
// body. The source entry is not modified.
func (s *Synthesizer) Mutate(src models.CandidateEntry) models.CandidateEntry {
	name := fmt.Sprintf("%s variant %d", swapSynonyms(src.Name), s.rng.Intn(90)+10)
	body := s.mutateBody(src.Body)

	entry := models.NewCandidateEntry(name, body, src.Tier)
	return entry
}

func (s *Synthesizer) mutateBody(body string) string {
	// Resize bracketed numeric sequences first; scaling afterwards would
	// otherwise see the freshly inserted values.
	body = numericListRe.ReplaceAllStringFunc(body, s.resizeList)

	body = stringLitRe.ReplaceAllStringFunc(body, func(lit string) string {
		quote := lit[0]
		inner := lit[1 : len(lit)-1]
		return string(quote) + swapSynonyms(inner) + string(quote)
	})

	return intLiteralRe.ReplaceAllStringFunc(body, func(lit string) string {
		n, err := strconv.Atoi(lit)
		if err != nil {
			return lit
		}
		factor := s.rng.Intn(4) + 2 // [2,5]
		return strconv.Itoa(n * factor)
	})
}

// resizeList grows or shrinks a bracketed numeric sequence by one element and
// refills it with new random values.
func (s *Synthesizer) resizeList(list string) string {
	inner := strings.Trim(list, "[] \t")
	parts := strings.Split(inner, ",")

	size := len(parts)
	if s.rng.Intn(2) == 0 && size > 1 {
		size--
	} else {
		size++
	}

	vals := make([]string, size)
	for i := range vals {
		vals[i] = strconv.Itoa(s.rng.Intn(100))
	}
	return "[" + strings.Join(vals, ", ") + "]"
}

func swapSynonyms(text string) string {
	words := strings.Split(text, " ")
	for i, w := range words {
		if repl, ok := synonyms[strings.ToLower(w)]; ok {
			words[i] = repl
		}
	}
	return strings.Join(words, " ")
}
