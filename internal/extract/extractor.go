// Package extract recovers named test entries from balanced but possibly
// degraded generated source. Five stages run in declining order of trust:
// exact pattern match, depth-tracked line scanning, aggressive label
// splitting, lenient assertion harvesting, and finally placeholder synthesis.
// The first stage whose output passes a validity check wins, so extraction
// always returns at least one entry.
package extract

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"testmend/internal/lang"
	"testmend/internal/scan"
	"testmend/pkg/models"
)

const (
	// minBodyLen is the body length below which an entry counts as trivial
	// for the stage validity check.
	minBodyLen = 10
	// lenientWindow is how far past a label the lenient stage looks for
	// assertion-like statements.
	lenientWindow = 500
)

// Extractor turns repaired source text into candidate entries for one
// language/framework profile.
type Extractor struct {
	profile *lang.Profile
	declRe  *regexp.Regexp
}

// New creates an extractor for the given profile.
func New(profile *lang.Profile) *Extractor {
	return &Extractor{
		profile: profile,
		declRe:  profile.DeclarationPattern(),
	}
}

// Extract runs the stage cascade over balanced text. The result is never
// empty: the placeholder stage succeeds by construction.
func (e *Extractor) Extract(text string) []models.CandidateEntry {
	stages := []struct {
		name string
		run  func(string) []models.CandidateEntry
	}{
		{"exact", e.exactMatch},
		{"depth-scan", e.depthScan},
		{"aggressive", e.aggressive},
		{"lenient", e.lenient},
	}

	for _, stage := range stages {
		entries := stage.run(text)
		if len(entries) > 0 && valid(entries) {
			log.Printf("[extract] stage %s produced %d entries", stage.name, len(entries))
			return entries
		}
	}

	entries := e.placeholder(text)
	log.Printf("[extract] fell through to placeholder stage, %d entries", len(entries))
	return entries
}

// valid requires at least half the entries to carry a non-trivial body.
func valid(entries []models.CandidateEntry) bool {
	nonTrivial := 0
	for _, entry := range entries {
		if len(entry.Body) > minBodyLen {
			nonTrivial++
		}
	}
	return nonTrivial*2 >= len(entries)
}

// exactMatch handles well-formed text: declaration keyword, quoted label,
// and a body whose closing brace lands at a newline boundary.
func (e *Extractor) exactMatch(text string) []models.CandidateEntry {
	re := e.exactRe()
	var entries []models.CandidateEntry
	for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
		match := submatchStrings(text, idx)
		label := lang.LabelFromMatch(match[:len(match)-1])
		body := strings.TrimRight(strings.TrimLeft(match[len(match)-1], "\n"), " \t\n")
		if label == "" {
			continue
		}
		entry := models.NewCandidateEntry(label, dedent(body), models.TierVerified)
		entry.RawSpan = models.Span{Start: idx[0], End: idx[1]}
		entries = append(entries, entry)
	}
	return entries
}

// exactRe builds the full-entry pattern: the profile's declaration pattern,
// an arrow or function callback, a body, and a close at a line boundary.
func (e *Extractor) exactRe() *regexp.Regexp {
	decl := e.declRe.String()
	return regexp.MustCompile(`(?m)` + decl +
		`\s*,\s*(?:async\s+)?(?:\([^)]*\)|function\s*\([^)]*\)|\w+)\s*(?:=>)?\s*\{([\s\S]*?)(?:\n[ \t]*)?\}\s*\)\s*;?[ \t]*$`)
}

// depthScan walks lines, opening an entry at a declaration-plus-label line
// and closing it when scanner-aware brace depth returns to the level the
// entry opened at. It tolerates noise between entries.
func (e *Extractor) depthScan(text string) []models.CandidateEntry {
	lines := strings.Split(text, "\n")
	deltas := lineDeltas(text, len(lines))

	var entries []models.CandidateEntry
	depth := 0
	open := false
	openDepth := 0
	var label string
	var body []string
	var spanStart, offset int

	for i, line := range lines {
		lineStart := offset
		offset += len(line) + 1

		if !open {
			if idx := e.declRe.FindStringSubmatchIndex(line); idx != nil {
				m := submatchStrings(line, idx)
				rest := line[idx[1]:]
				if deltas[i] == 0 && strings.Contains(rest, "{") {
					// The declaration opens and closes on one line.
					entry := models.NewCandidateEntry(lang.LabelFromMatch(m), strings.TrimSpace(braceLedChunk(rest)), models.TierRecovered)
					entry.RawSpan = models.Span{Start: lineStart, End: lineStart + len(line)}
					entries = append(entries, entry)
					continue
				}
				if deltas[i] <= 0 {
					// Depth never leaves the opening level, so the entry
					// closes where it opened, with nothing accumulated. The
					// validity check downstream decides whether that is good
					// enough.
					entry := models.NewCandidateEntry(lang.LabelFromMatch(m), "", models.TierRecovered)
					entry.RawSpan = models.Span{Start: lineStart, End: lineStart + len(line)}
					entries = append(entries, entry)
					depth += deltas[i]
					continue
				}
				open = true
				openDepth = depth
				label = lang.LabelFromMatch(m)
				body = body[:0]
				spanStart = lineStart
			}
			depth += deltas[i]
			continue
		}

		depth += deltas[i]
		if depth <= openDepth {
			// Depth came back to the opening level: the entry is complete.
			entry := models.NewCandidateEntry(label, dedent(strings.Join(trimCloserLine(body, line), "\n")), models.TierRecovered)
			entry.RawSpan = models.Span{Start: spanStart, End: offset - 1}
			entries = append(entries, entry)
			open = false
			continue
		}
		body = append(body, line)
	}

	// An entry still open at end of text keeps what it accumulated.
	if open && len(body) > 0 {
		entry := models.NewCandidateEntry(label, dedent(strings.Join(body, "\n")), models.TierRecovered)
		entry.RawSpan = models.Span{Start: spanStart, End: len(text)}
		entries = append(entries, entry)
	}
	return entries
}

// trimCloserLine appends what remains of the closing line once its closer
// run is stripped. The closers end the entry itself; a trailing comment
// belongs to the closer and is dropped with it.
func trimCloserLine(body []string, closing string) []string {
	trimmed := strings.TrimSpace(closing)
	if i := strings.Index(trimmed, "//"); i >= 0 {
		trimmed = strings.TrimSpace(trimmed[:i])
	}
	trimmed = strings.TrimRight(trimmed, "}); \t")
	if trimmed == "" {
		return body
	}
	return append(body, trimmed)
}

// lineDeltas computes, per line, structural opener count minus closer count
// for braces, in one scanner pass.
func lineDeltas(text string, lineCount int) []int {
	deltas := make([]int, lineCount)
	line := 0
	scan.Each(text, func(tok scan.Token) {
		if tok.Ch == '\n' {
			line++
			return
		}
		if !tok.Structural || line >= lineCount {
			return
		}
		switch tok.Ch {
		case '{':
			deltas[line]++
		case '}':
			deltas[line]--
		}
	})
	return deltas
}

// aggressive splits the text at every detected label regardless of body
// well-formedness, takes the largest brace-led chunk in each slice, and trims
// orphan trailing closers inside the chunk.
func (e *Extractor) aggressive(text string) []models.CandidateEntry {
	matches := e.declRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var entries []models.CandidateEntry
	for i, idx := range matches {
		match := submatchStrings(text, idx)
		label := lang.LabelFromMatch(match)
		if label == "" {
			continue
		}

		sliceEnd := len(text)
		if i+1 < len(matches) {
			sliceEnd = matches[i+1][0]
		}
		slice := text[idx[1]:sliceEnd]

		body := braceLedChunk(slice)
		if body == "" {
			continue
		}
		entry := models.NewCandidateEntry(label, dedent(body), models.TierSalvaged)
		entry.RawSpan = models.Span{Start: idx[0], End: sliceEnd}
		entries = append(entries, entry)
	}
	return entries
}

// braceLedChunk returns the interior of the largest chunk in the slice that
// starts at the first structural '{', with orphan trailing closers trimmed.
func braceLedChunk(slice string) string {
	start := -1
	end := -1
	depth := 0
	scan.Each(slice, func(tok scan.Token) {
		if !tok.Structural {
			return
		}
		switch tok.Ch {
		case '{':
			if start < 0 {
				start = tok.Pos
			}
			depth++
		case '}':
			if start >= 0 && depth > 0 {
				depth--
				if depth == 0 {
					end = tok.Pos
				}
			}
		}
	})
	if start < 0 {
		return ""
	}
	var chunk string
	if end > start {
		chunk = slice[start+1 : end]
	} else {
		// Never closed: take everything after the opener.
		chunk = slice[start+1:]
	}
	return trimOrphanClosers(chunk)
}

// trimOrphanClosers strips trailing closer runs for as long as the chunk has
// more structural closers than openers.
func trimOrphanClosers(chunk string) string {
	for {
		chunk = strings.TrimRight(chunk, " \t\n;)")
		if delta := braceDelta(chunk); delta >= 0 {
			return chunk
		}
		if !strings.HasSuffix(chunk, "}") {
			return chunk
		}
		chunk = chunk[:len(chunk)-1]
	}
}

func braceDelta(text string) int {
	delta := 0
	scan.Each(text, func(tok scan.Token) {
		if !tok.Structural {
			return
		}
		switch tok.Ch {
		case '{':
			delta++
		case '}':
			delta--
		}
	})
	return delta
}

// lenient scans a fixed window after each label for assertion-like
// statements. Assertions found become the body; otherwise a marked
// placeholder statement referencing the label stands in.
func (e *Extractor) lenient(text string) []models.CandidateEntry {
	matches := e.declRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var entries []models.CandidateEntry
	for _, idx := range matches {
		match := submatchStrings(text, idx)
		label := lang.LabelFromMatch(match)
		if label == "" {
			continue
		}

		end := idx[1] + lenientWindow
		if end > len(text) {
			end = len(text)
		}
		window := text[idx[1]:end]

		var kept []string
		for _, line := range strings.Split(window, "\n") {
			if e.assertionLike(line) {
				kept = append(kept, strings.TrimSpace(line))
			}
		}

		body := strings.Join(kept, "\n")
		if body == "" {
			body = e.profile.PlaceholderBody(label)
		}
		entry := models.NewCandidateEntry(label, body, models.TierSalvaged)
		entry.RawSpan = models.Span{Start: idx[0], End: end}
		entries = append(entries, entry)
	}
	return entries
}

func (e *Extractor) assertionLike(line string) bool {
	for _, marker := range e.profile.AssertionMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// placeholder is the stage of last resort: one entry per detected label, or
// a single generic entry when no labels exist at all.
func (e *Extractor) placeholder(text string) []models.CandidateEntry {
	matches := e.declRe.FindAllStringSubmatch(text, -1)

	var entries []models.CandidateEntry
	seen := make(map[string]struct{})
	for _, m := range matches {
		label := lang.LabelFromMatch(m)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		entries = append(entries, models.NewCandidateEntry(label, e.profile.PlaceholderBody(label), models.TierPlaceholder))
	}

	if len(entries) == 0 {
		label := "unrecovered generated test"
		entries = append(entries, models.NewCandidateEntry(label, e.profile.PlaceholderBody(label), models.TierPlaceholder))
	}
	return entries
}

// dedent removes the longest common leading whitespace from non-empty lines.
func dedent(body string) string {
	lines := strings.Split(body, "\n")
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = indent
			first = false
			continue
		}
		for !strings.HasPrefix(line, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	if prefix == "" {
		return strings.TrimSpace(body)
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// submatchStrings expands FindAllStringSubmatchIndex output into submatch
// strings, with empty strings for groups that did not participate.
func submatchStrings(text string, idx []int) []string {
	out := make([]string, len(idx)/2)
	for i := 0; i < len(idx); i += 2 {
		if idx[i] < 0 {
			out[i/2] = ""
			continue
		}
		out[i/2] = text[idx[i]:idx[i+1]]
	}
	return out
}

// Describe summarizes entries for logging.
func Describe(entries []models.CandidateEntry) string {
	counts := make(map[models.QualityTier]int)
	for _, e := range entries {
		counts[e.Tier]++
	}
	parts := make([]string, 0, len(counts))
	for tier := models.TierVerified; tier >= models.TierPlaceholder; tier-- {
		if n := counts[tier]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, tier))
		}
	}
	return strings.Join(parts, ", ")
}
