// Package orchestrator drives the bounded generation loop: it asks the
// external generator for test text, repairs and extracts what comes back,
// deduplicates against the session corpus, and falls back to deterministic
// variation synthesis when external calls stop paying off.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"testmend/internal/balance"
	"testmend/internal/dedup"
	"testmend/internal/extract"
	"testmend/internal/lang"
	"testmend/internal/prompt"
	"testmend/internal/rebuild"
	"testmend/internal/variation"
	"testmend/pkg/models"
)

// ErrGeneratorExhausted is returned when every external attempt in a
// generate call failed and nothing usable was produced. It wraps the last
// underlying cause.
var ErrGeneratorExhausted = errors.New("all generation attempts failed")

// Generator is the external text generation boundary. Implementations may
// fail on authentication, network, or rate-limit conditions; any failure
// counts as a failed attempt.
type Generator interface {
	GenerateTests(ctx context.Context, system, userPrompt string) (string, error)
}

// Options tunes the generation loop. Zero values select the defaults.
type Options struct {
	// TargetCount is the batch size to aim for. Default 12.
	TargetCount int
	// MaxAttempts caps external generator calls per Generate. Default 2.
	MaxAttempts int
	// MinYield is the yield ratio below which further external calls are
	// judged to have diminishing returns. Default 0.5.
	MinYield float64
	// SimilarityThreshold is the fuzzy-name rejection threshold. Default 0.8.
	SimilarityThreshold float64
	// VariationSeed seeds the synthesizer so a generate call is
	// reproducible. Zero selects a time-based seed.
	VariationSeed int64
}

func (o Options) withDefaults() Options {
	if o.TargetCount <= 0 {
		o.TargetCount = models.DefaultTargetCount
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 2
	}
	if o.MinYield <= 0 {
		o.MinYield = 0.5
	}
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = dedup.DefaultSimilarityThreshold
	}
	if o.VariationSeed == 0 {
		o.VariationSeed = time.Now().UnixNano()
	}
	return o
}

// GenerateRequest carries one generation job.
type GenerateRequest struct {
	// SourceCode is the code under test.
	SourceCode string
	// Suite names the top-level grouping block in the output.
	Suite string
	// Framework selects the language profile (jest, mocha, vitest).
	Framework string
	// Session owns the historical corpus used for duplicate suppression.
	Session *Session
}

// Orchestrator runs generation rounds against one Generator.
type Orchestrator struct {
	gen  Generator
	opts Options
}

// New creates an orchestrator.
func New(gen Generator, opts Options) *Orchestrator {
	return &Orchestrator{gen: gen, opts: opts.withDefaults()}
}

// Generate runs at most MaxAttempts external calls, deduplicates the
// results against the session corpus, tops up from the variation
// synthesizer when short, and reconstructs the final file. Entries accepted
// before a cancellation or failure are retained in the returned batch.
//
// The returned batch carries exactly TargetCount entries whenever the
// corpus and the generator's output can supply that many distinct entries.
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) (*models.OutputBatch, error) {
	if req.Session == nil {
		return nil, fmt.Errorf("generate: nil session")
	}

	profile := lang.Resolve(req.Framework)
	corpus := req.Session.Corpus()
	set := dedup.NewSet(o.opts.SimilarityThreshold, corpus.Entries())

	var (
		accepted []models.CandidateEntry
		headers  []string
		meta     models.BatchMetadata
		lastErr  error
	)

	for attempt := 0; attempt < o.opts.MaxAttempts && len(accepted) < o.opts.TargetCount; attempt++ {
		if err := ctx.Err(); err != nil {
			// Cancellation stops further attempts; what is already accepted
			// stays in the batch.
			lastErr = err
			break
		}

		userPrompt := prompt.Build(req.SourceCode, profile, o.opts.TargetCount, corpusNames(corpus))

		raw, err := o.gen.GenerateTests(ctx, prompt.System(), userPrompt)
		meta.Attempts++
		if err != nil {
			// The round aborts without committing anything; nothing from a
			// failed call reaches the corpus.
			lastErr = err
			meta.YieldPerAttempt = append(meta.YieldPerAttempt, 0)
			log.Printf("[generate] attempt %d failed: %v", meta.Attempts, err)
			continue
		}

		balanced := balance.Balance(raw)
		headers = append(headers, rebuild.CollectHeaders(balanced.Text, profile)...)

		candidates := extract.New(profile).Extract(balanced.Text)
		fresh := set.Filter(candidates)
		accepted = append(accepted, fresh...)
		corpus.Append(fresh...)

		yield := float64(len(fresh)) / float64(max(1, len(candidates)))
		meta.YieldPerAttempt = append(meta.YieldPerAttempt, yield)
		log.Printf("[generate] attempt %d: %d candidates (%s), %d new, yield %.2f",
			meta.Attempts, len(candidates), extract.Describe(candidates), len(fresh), yield)

		if yield < o.opts.MinYield {
			// Under half the round was novel; further calls have
			// diminishing returns, so switch to synthesis.
			log.Printf("[generate] yield %.2f below %.2f, stopping external attempts", yield, o.opts.MinYield)
			break
		}
	}

	if len(accepted) == 0 && lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneratorExhausted, lastErr)
	}

	if missing := o.opts.TargetCount - len(accepted); missing > 0 && corpus.Len() > 0 {
		variations := variation.New(o.opts.VariationSeed).Fill(missing, corpus.Entries(), set)
		accepted = append(accepted, variations...)
		corpus.Append(variations...)
		meta.VariationsUsed = len(variations)
	}

	if len(accepted) > o.opts.TargetCount {
		accepted = accepted[:o.opts.TargetCount]
	}
	meta.DuplicatesRemoved = set.Rejected()

	batch := &models.OutputBatch{
		Entries:  accepted,
		Metadata: meta,
		Text:     rebuild.New(profile).Build(req.Suite, headers, accepted),
	}
	return batch, nil
}

// corpusNames lists every accepted name so the prompt can steer the model
// away from work the session already has. Entries accepted in earlier
// attempts of this call are already in the corpus.
func corpusNames(corpus *models.Corpus) []string {
	entries := corpus.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
