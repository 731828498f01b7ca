// Package prompt builds the generation prompt sent to the external model.
package prompt

import (
	"fmt"
	"strings"

	"testmend/internal/lang"
)

// generatePrompt is the template for a test-generation request. The existing
// names section steers the model away from tests the session already has.
const generatePrompt = `Generate %d unit tests for the source code below.

## Source Code (%s)
%s

## Requirements
- Use the %s framework with %s-style test declarations.
- Wrap all tests in a single %s block.
- Every test name must be unique and descriptive.
- Cover normal cases, edge cases, and error conditions.
- Return ONLY the test file content (no prose, no markdown fences).

## Existing Test Names (do not duplicate or closely paraphrase these)
%s`

// systemPrompt frames the model's role for every generation call.
const systemPrompt = `You are a test generation assistant. You write complete, runnable unit
test files for the source code you are given. You respond with test code
only: no explanations, no markdown fences, no commentary.`

// Build renders the generation prompt for one attempt.
func Build(sourceCode string, profile *lang.Profile, target int, existingNames []string) string {
	names := "(none yet)"
	if len(existingNames) > 0 {
		var b strings.Builder
		for _, n := range existingNames {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteByte('\n')
		}
		names = strings.TrimRight(b.String(), "\n")
	}

	return fmt.Sprintf(generatePrompt,
		target,
		profile.Language,
		sourceCode,
		profile.Name,
		profile.DeclarationKeywords[0],
		profile.GroupingKeyword,
		names,
	)
}

// System returns the system prompt for generation calls.
func System() string {
	return systemPrompt
}
