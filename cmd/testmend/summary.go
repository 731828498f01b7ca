package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"testmend/internal/api"
	"testmend/pkg/models"
)

// summaryStyles holds the styles for the post-generation summary block.
type summaryStyles struct {
	border lipgloss.Style
	title  lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	tiers  map[models.QualityTier]lipgloss.Style
}

func newSummaryStyles() summaryStyles {
	return summaryStyles{
		border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),

		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")),

		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		tiers: map[models.QualityTier]lipgloss.Style{
			models.TierVerified:    lipgloss.NewStyle().Foreground(lipgloss.Color("34")),  // Green
			models.TierRecovered:   lipgloss.NewStyle().Foreground(lipgloss.Color("28")),  // Dark green
			models.TierSalvaged:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // Orange
			models.TierPlaceholder: lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // Red
		},
	}
}

// renderSummary renders the generation result as a bordered block.
func renderSummary(sessionID string, batch *models.OutputBatch, tracker *api.TokenTracker) string {
	s := newSummaryStyles()

	var b strings.Builder
	b.WriteString(s.title.Render("Generation summary"))
	b.WriteString("\n")

	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", s.label.Render(label+":"), s.value.Render(value))
	}

	row("session", sessionID)
	row("entries", fmt.Sprintf("%d", len(batch.Entries)))
	row("attempts", fmt.Sprintf("%d", batch.Metadata.Attempts))
	row("yield", formatYields(batch.Metadata.YieldPerAttempt))
	row("duplicates removed", fmt.Sprintf("%d", batch.Metadata.DuplicatesRemoved))
	row("variations used", fmt.Sprintf("%d", batch.Metadata.VariationsUsed))

	if tracker != nil && tracker.Calls() > 0 {
		in, out := tracker.Total()
		row("tokens", fmt.Sprintf("%d in / %d out", in, out))
	}

	b.WriteString(renderTierLine(s, batch.Entries))
	return s.border.Render(strings.TrimRight(b.String(), "\n"))
}

// renderTierLine renders per-tier counts, best tier first.
func renderTierLine(s summaryStyles, entries []models.CandidateEntry) string {
	counts := make(map[models.QualityTier]int)
	for _, e := range entries {
		counts[e.Tier]++
	}

	var parts []string
	for tier := models.TierVerified; tier >= models.TierPlaceholder; tier-- {
		if n := counts[tier]; n > 0 {
			parts = append(parts, s.tiers[tier].Render(fmt.Sprintf("%d %s", n, tier)))
		}
	}
	if len(parts) == 0 {
		return s.label.Render("no entries")
	}
	return strings.Join(parts, s.label.Render(" · "))
}

func formatYields(yields []float64) string {
	if len(yields) == 0 {
		return "-"
	}
	parts := make([]string, len(yields))
	for i, y := range yields {
		parts[i] = fmt.Sprintf("%.2f", y)
	}
	return strings.Join(parts, ", ")
}
