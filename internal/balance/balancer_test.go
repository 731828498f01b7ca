package balance

import (
	"strings"
	"testing"

	"testmend/internal/scan"
)

// structuralDelta returns structural opener count minus closer count for the
// given delimiter pair.
func structuralDelta(text string, open, close byte) int {
	delta := 0
	scan.Each(text, func(tok scan.Token) {
		if !tok.Structural {
			return
		}
		switch tok.Ch {
		case open:
			delta++
		case close:
			delta--
		}
	})
	return delta
}

func TestBalance_AlwaysBalanced(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"already balanced", `describe("s", () => { it("a", () => {}); });`},
		{"truncated block", `describe("s", () => {` + "\n" + `  it("a", () => {` + "\n" + `    expect(1).toBe(1);`},
		{"orphan closers only", "});\n});\n}"},
		{"brace inside string stays", `it("has } inside", () => {});`},
		{"interleaved garbage", `it("a", () => { expect(} ) ; });))`},
		{"unterminated string", `it("a", () => { expect("oops`},
		{"comment hides closers", "it('a', () => {\n// });\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Balance(tt.text)
			if delta := structuralDelta(res.Text, '{', '}'); delta != 0 {
				t.Errorf("brace delta = %d for %q", delta, res.Text)
			}
			if delta := structuralDelta(res.Text, '(', ')'); delta != 0 {
				t.Errorf("paren delta = %d for %q", delta, res.Text)
			}
		})
	}
}

// Two well-formed blocks plus a single orphan trailing closer: exactly one
// orphan is removed and the result is balanced.
func TestBalance_SingleOrphanCloser(t *testing.T) {
	text := `describe("calc", () => {
  it("adds", () => { expect(add(1, 2)).toBe(3); });
  it("subtracts", () => { expect(sub(3, 1)).toBe(2); });
});
});`
	res := Balance(text)

	if res.OrphanClosersDropped != 1 {
		t.Errorf("OrphanClosersDropped = %d, want 1", res.OrphanClosersDropped)
	}
	if res.ClosersAppended != 0 {
		t.Errorf("ClosersAppended = %d, want 0", res.ClosersAppended)
	}
	if delta := structuralDelta(res.Text, '{', '}'); delta != 0 {
		t.Errorf("brace delta = %d", delta)
	}
	if !strings.Contains(res.Text, `it("subtracts"`) {
		t.Error("well-formed blocks must survive balancing")
	}
}

func TestBalance_OrphanConsumesOwnTrailingRun(t *testing.T) {
	// The orphan closer's artifact run (stray ')' ';' whitespace, one
	// newline) goes with it; the following line survives.
	text := "});  \nexpect(keep()).toBe(true);"
	res := Balance(text)

	if !strings.Contains(res.Text, "expect(keep()).toBe(true);") {
		t.Fatalf("line after artifact run must survive, got %q", res.Text)
	}
	if strings.Contains(res.Text, "});") {
		t.Errorf("artifact run should be consumed, got %q", res.Text)
	}
}

func TestBalance_AdjacentOrphansOneUnitAtATime(t *testing.T) {
	// Two orphans on separate lines: each consumes only its own run.
	text := "});\n});\nit('a', () => {});"
	res := Balance(text)

	if res.OrphanClosersDropped != 2 {
		t.Errorf("OrphanClosersDropped = %d, want 2", res.OrphanClosersDropped)
	}
	if !strings.Contains(res.Text, "it('a', () => {});") {
		t.Errorf("surviving block lost: %q", res.Text)
	}
}

func TestBalance_AppendsMissingClosers(t *testing.T) {
	text := `describe("s", () => {` + "\n" + `  it("a", () => {`
	res := Balance(text)

	if res.ClosersAppended == 0 {
		t.Fatal("expected closers to be appended")
	}
	if delta := structuralDelta(res.Text, '{', '}'); delta != 0 {
		t.Errorf("brace delta = %d", delta)
	}
	if delta := structuralDelta(res.Text, '(', ')'); delta != 0 {
		t.Errorf("paren delta = %d", delta)
	}
}

func TestBalance_IgnoresDelimitersInStrings(t *testing.T) {
	text := `it("weird } ) label", () => { expect("{").toBe("{"); });`
	res := Balance(text)

	if res.OrphanClosersDropped != 0 {
		t.Errorf("quoted closers treated as structural: dropped %d", res.OrphanClosersDropped)
	}
	if res.Text != text {
		t.Errorf("balanced text should be unchanged, got %q", res.Text)
	}
}
