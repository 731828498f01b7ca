// Package rebuild assembles repaired entries into one normalized test file:
// a single deduplicated import header, one top-level grouping block, and one
// body per entry. Sections are ordered by descending quality tier, with a
// warning banner whenever anything below the verified tier made it in.
package rebuild

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"testmend/internal/lang"
	"testmend/pkg/models"
)

const warningBanner = `/*
 * WARNING: some tests below were recovered or synthesized from malformed
 * generator output. Sections are ordered by descending confidence; the least
 * reliable entries are at the end. Review before relying on them.
 */`

var modulePathRe = regexp.MustCompile(`['"]([^'"]+)['"]`)

// Reconstructor renders normalized test files for one profile.
type Reconstructor struct {
	profile *lang.Profile
}

// New creates a reconstructor for the given profile.
func New(profile *lang.Profile) *Reconstructor {
	return &Reconstructor{profile: profile}
}

// Build renders the final file. Headers are deduplicated by module reference,
// first occurrence wins. Entries are grouped by tier in descending order and
// names are uniquified so the output never declares the same test twice.
func (r *Reconstructor) Build(suite string, headers []string, entries []models.CandidateEntry) string {
	var b strings.Builder

	deduped := dedupeHeaders(headers)
	for _, h := range deduped {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	if len(deduped) > 0 {
		b.WriteByte('\n')
	}

	ordered := orderByTier(entries)
	if len(ordered) > 0 && ordered[len(ordered)-1].Tier < models.TierVerified {
		b.WriteString(warningBanner)
		b.WriteString("\n\n")
	}

	if suite == "" {
		suite = "generated tests"
	}
	b.WriteString(r.profile.GroupingKeyword)
	b.WriteString("('")
	b.WriteString(escapeLabel(suite))
	b.WriteString("', () => {\n")

	lastTier := models.QualityTier(-1)
	names := make(map[string]int)
	for i, e := range ordered {
		if e.Tier != lastTier {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("  // ---- ")
			b.WriteString(e.Tier.String())
			b.WriteString(" ----\n")
			lastTier = e.Tier
		} else {
			b.WriteByte('\n')
		}
		r.writeEntry(&b, uniquify(names, e.Name), e.Body)
	}

	b.WriteString("});\n")
	return b.String()
}

func (r *Reconstructor) writeEntry(b *strings.Builder, name, body string) {
	b.WriteString("  ")
	b.WriteString(r.profile.DeclarationKeywords[0])
	b.WriteString("('")
	b.WriteString(escapeLabel(name))
	b.WriteString("', () => {\n")
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			b.WriteByte('\n')
			continue
		}
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("  });\n")
}

// dedupeHeaders keeps the first header per module reference. Headers without
// a recognizable module path are keyed by their trimmed text.
func dedupeHeaders(headers []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, h := range headers {
		h = strings.TrimRight(h, " \t")
		if strings.TrimSpace(h) == "" {
			continue
		}
		key := strings.TrimSpace(h)
		if m := modulePathRe.FindStringSubmatch(h); m != nil {
			key = m[1]
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

// orderByTier sorts entries by descending tier, keeping the original order
// within a tier.
func orderByTier(entries []models.CandidateEntry) []models.CandidateEntry {
	out := make([]models.CandidateEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tier > out[j].Tier
	})
	return out
}

// uniquify returns name, or name with a numeric suffix if it was used before.
func uniquify(seen map[string]int, name string) string {
	seen[name]++
	if seen[name] == 1 {
		return name
	}
	return name + " " + strconv.Itoa(seen[name])
}

// escapeLabel makes a label safe inside single quotes.
func escapeLabel(label string) string {
	label = strings.ReplaceAll(label, `\`, `\\`)
	return strings.ReplaceAll(label, "'", `\'`)
}

// CollectHeaders pulls the profile's import/module-reference lines out of
// repaired source text, in order of appearance.
func CollectHeaders(text string, profile *lang.Profile) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if profile.IsImportLine(line) {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}
