package prompt

import (
	"strings"
	"testing"

	"testmend/internal/lang"
)

func TestBuild_IncludesSourceAndNames(t *testing.T) {
	p := Build("function add(a, b) { return a + b; }", lang.Resolve("jest"), 12,
		[]string{"adds positive numbers", "handles zero"})

	for _, want := range []string{
		"function add(a, b)",
		"- adds positive numbers",
		"- handles zero",
		"describe",
		"jest",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuild_NoExistingNames(t *testing.T) {
	p := Build("const x = 1;", lang.Resolve("mocha"), 12, nil)
	if !strings.Contains(p, "(none yet)") {
		t.Error("prompt should mark the empty existing-names section")
	}
}
