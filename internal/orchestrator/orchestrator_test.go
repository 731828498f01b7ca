package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testmend/pkg/models"
)

// scriptedGenerator replays canned responses in order. A nil error with an
// empty response past the end of the script fails the call.
type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
	onCall    func(call int)
}

func (g *scriptedGenerator) GenerateTests(ctx context.Context, system, userPrompt string) (string, error) {
	g.calls++
	if g.onCall != nil {
		g.onCall(g.calls)
	}
	i := g.calls - 1
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

// suiteText renders one well-formed jest test block per name.
func suiteText(names ...string) string {
	var b strings.Builder
	b.WriteString("const { subject } = require('./subject');\n\n")
	for _, n := range names {
		fmt.Fprintf(&b, "test('%s', () => {\n  expect(subject('%s')).toBe(true);\n});\n\n", n, n)
	}
	return b.String()
}

// Names chosen to sit far apart under fuzzy name comparison.
var distinctNames = []string{
	"parses an empty payload",
	"rejects oversized frames",
	"computes the checksum",
	"preserves insertion order",
	"merges duplicate keys",
	"escapes control characters",
	"validates nested arrays",
	"reports unknown fields",
	"caps recursion depth",
	"normalizes path segments",
	"coerces numeric strings",
	"truncates long identifiers",
	"round trips unicode labels",
	"ignores trailing separators",
}

func newRequest(session *Session) GenerateRequest {
	return GenerateRequest{
		SourceCode: "function subject(s) { return s.length >= 0; }",
		Suite:      "subject",
		Framework:  "jest",
		Session:    session,
	}
}

func TestGenerate_SecondRoundRunsWhenYieldHolds(t *testing.T) {
	// Round one repeats two of its own names, so 6 of 8 candidates are
	// fresh (yield 0.75). That clears the cutoff, round two tops the
	// batch up to target, and no variations are needed.
	round1 := append(append([]string{}, distinctNames[:6]...), distinctNames[0], distinctNames[1])
	gen := &scriptedGenerator{responses: []string{
		suiteText(round1...),
		suiteText(distinctNames[6:12]...),
	}}

	o := New(gen, Options{VariationSeed: 7})
	batch, err := o.Generate(context.Background(), newRequest(NewSession()))
	require.NoError(t, err)

	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, 2, batch.Metadata.Attempts)
	require.Len(t, batch.Metadata.YieldPerAttempt, 2)
	assert.InDelta(t, 0.75, batch.Metadata.YieldPerAttempt[0], 0.001)
	assert.InDelta(t, 1.0, batch.Metadata.YieldPerAttempt[1], 0.001)
	assert.Equal(t, 0, batch.Metadata.VariationsUsed)
	assert.Equal(t, 2, batch.Metadata.DuplicatesRemoved)
	assert.Len(t, batch.Entries, 12)
}

func TestGenerate_LowYieldStopsExternalCallsAndFillsFromVariations(t *testing.T) {
	// The session corpus already holds eight entries; the generator
	// mostly re-produces them, so only 2 of 6 candidates survive (yield
	// 0.33). External calls stop after one round and variations fill the
	// remaining slots.
	session := NewSession()
	for _, name := range distinctNames[:8] {
		session.Corpus().Append(models.NewCandidateEntry(
			name, "expect(subject('"+name+"')).toBe(true);", models.TierVerified))
	}

	round1 := append(append([]string{}, distinctNames[:4]...), distinctNames[8], distinctNames[9])
	gen := &scriptedGenerator{responses: []string{suiteText(round1...)}}

	o := New(gen, Options{VariationSeed: 7})
	batch, err := o.Generate(context.Background(), newRequest(session))
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, batch.Metadata.Attempts)
	require.Len(t, batch.Metadata.YieldPerAttempt, 1)
	assert.InDelta(t, 2.0/6.0, batch.Metadata.YieldPerAttempt[0], 0.001)
	assert.Equal(t, 10, batch.Metadata.VariationsUsed)
	assert.Len(t, batch.Entries, 12)
}

func TestGenerate_NeverExceedsAttemptCap(t *testing.T) {
	// Every round is fully fresh but small, so the batch stays short; the
	// attempt cap still holds and the shortfall comes from variations.
	gen := &scriptedGenerator{responses: []string{
		suiteText(distinctNames[:3]...),
		suiteText(distinctNames[3:6]...),
		suiteText(distinctNames[6:9]...),
	}}

	o := New(gen, Options{VariationSeed: 7})
	batch, err := o.Generate(context.Background(), newRequest(NewSession()))
	require.NoError(t, err)

	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, 2, batch.Metadata.Attempts)
	assert.Equal(t, 6, batch.Metadata.VariationsUsed)
	assert.Len(t, batch.Entries, 12)
}

func TestGenerate_OverfullRoundTruncatesToTarget(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{suiteText(distinctNames...)}}

	o := New(gen, Options{VariationSeed: 7})
	batch, err := o.Generate(context.Background(), newRequest(NewSession()))
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Len(t, batch.Entries, 12)
	assert.Equal(t, 0, batch.Metadata.VariationsUsed)
	assert.True(t, batch.Full(models.DefaultTargetCount))
}

func TestGenerate_AllAttemptsFailing(t *testing.T) {
	boom := errors.New("upstream unavailable")
	gen := &scriptedGenerator{errs: []error{boom, boom}}

	o := New(gen, Options{})
	batch, err := o.Generate(context.Background(), newRequest(NewSession()))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneratorExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, batch)
	assert.Equal(t, 2, gen.calls)
}

func TestGenerate_FailedAttemptCountsWithZeroYield(t *testing.T) {
	gen := &scriptedGenerator{
		errs:      []error{errors.New("timeout"), nil},
		responses: []string{"", suiteText(distinctNames[:12]...)},
	}

	o := New(gen, Options{VariationSeed: 7})
	batch, err := o.Generate(context.Background(), newRequest(NewSession()))
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Metadata.Attempts)
	require.Len(t, batch.Metadata.YieldPerAttempt, 2)
	assert.Zero(t, batch.Metadata.YieldPerAttempt[0])
	assert.Len(t, batch.Entries, 12)
}

func TestGenerate_CancellationRetainsAcceptedEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &scriptedGenerator{
		responses: []string{suiteText(distinctNames[:6]...)},
		onCall:    func(int) { cancel() },
	}

	o := New(gen, Options{VariationSeed: 7})
	batch, err := o.Generate(ctx, newRequest(NewSession()))
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls, "no further external calls after cancellation")
	assert.Equal(t, 1, batch.Metadata.Attempts)

	got := make(map[string]bool)
	for _, e := range batch.Entries {
		got[e.Name] = true
	}
	for _, name := range distinctNames[:6] {
		assert.True(t, got[name], "entry %q should survive cancellation", name)
	}
}

func TestGenerate_CorpusSuppressesResubmission(t *testing.T) {
	session := NewSession()
	o := New(&scriptedGenerator{responses: []string{suiteText(distinctNames[:12]...)}}, Options{VariationSeed: 7})
	first, err := o.Generate(context.Background(), newRequest(session))
	require.NoError(t, err)
	require.Len(t, first.Entries, 12)

	// The identical payload against the same session yields nothing new.
	gen := &scriptedGenerator{responses: []string{suiteText(distinctNames[:12]...)}}
	o = New(gen, Options{VariationSeed: 11})
	second, err := o.Generate(context.Background(), newRequest(session))
	require.NoError(t, err)

	assert.Zero(t, second.Metadata.YieldPerAttempt[0])
	assert.Equal(t, 1, gen.calls)
	for _, e := range second.Entries {
		assert.Contains(t, e.Name, "variant", "only variations should remain after full resubmission")
	}
}

func TestGenerate_ReconstructedTextCarriesSuiteAndEntries(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{suiteText(distinctNames[:12]...)}}

	o := New(gen, Options{VariationSeed: 7})
	batch, err := o.Generate(context.Background(), newRequest(NewSession()))
	require.NoError(t, err)

	assert.Contains(t, batch.Text, "describe('subject', () => {")
	assert.Contains(t, batch.Text, "const { subject } = require('./subject');")
	for _, e := range batch.Entries {
		assert.Contains(t, batch.Text, e.Name)
	}
}

func TestGenerate_NilSession(t *testing.T) {
	o := New(&scriptedGenerator{}, Options{})
	req := newRequest(nil)

	batch, err := o.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, batch)
	assert.Contains(t, err.Error(), "nil session")
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	assert.NotEmpty(t, s.ID())
	assert.Zero(t, s.Corpus().Len())

	s.Corpus().Append(models.NewCandidateEntry("a", "b", models.TierVerified))
	assert.Equal(t, 1, s.Corpus().Len())

	resumed := ResumeSession(s.ID(), s.Corpus().Entries())
	assert.Equal(t, s.ID(), resumed.ID())
	assert.Equal(t, 1, resumed.Corpus().Len())

	s.Close()
	assert.True(t, s.Closed())
	assert.Zero(t, s.Corpus().Len())
}
