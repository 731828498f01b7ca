package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"testmend/internal/api"
	"testmend/internal/config"
	"testmend/internal/orchestrator"
	"testmend/internal/state"
	"testmend/pkg/models"
)

var (
	generateSuite     string
	generateFramework string
	generateOut       string
	generateReport    string
	generateSessionID string
	generateEnd       bool
	generateTarget    int
	generateSeed      int64
)

var generateCmd = &cobra.Command{
	Use:   "generate [source-file]",
	Short: "Generate a repaired, deduplicated test file for a source file",
	Long: `Generate asks the model for tests covering the given source file, repairs
whatever comes back, and writes a balanced test file.

Entries are deduplicated against the working session: rerunning generate on
the same source keeps producing novel tests until the session is ended.
Sessions are stored in the testmend database and resumed automatically per
source path; pass --session to resume a specific one.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateSuite, "suite", "", "Suite name for the output file (default: source file base name)")
	generateCmd.Flags().StringVar(&generateFramework, "framework", "", "Test framework profile: jest, mocha, vitest")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Output file path (default: <source>.generated.test.js)")
	generateCmd.Flags().StringVar(&generateReport, "report", "", "Write a YAML generation report to this path")
	generateCmd.Flags().StringVar(&generateSessionID, "session", "", "Resume an existing session by ID")
	generateCmd.Flags().BoolVar(&generateEnd, "end-session", false, "End the session after generating, purging its history")
	generateCmd.Flags().IntVar(&generateTarget, "target", 0, "Batch size to aim for (default from config)")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Seed for variation synthesis (0 = time-based)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	framework := generateFramework
	if framework == "" {
		framework = cfg.Generation.Framework
	}
	suite := generateSuite
	if suite == "" {
		suite = suiteNameFor(sourcePath)
	}

	client, err := newGeneratorClient(cfg)
	if err != nil {
		return err
	}

	db, err := state.OpenGlobal()
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate state: %w", err)
	}

	session, record, err := resolveSession(db, sourcePath, framework)
	if err != nil {
		return err
	}

	target := generateTarget
	if target == 0 {
		target = cfg.Generation.TargetCount
	}
	seed := generateSeed
	if seed == 0 {
		seed = cfg.Variation.Seed
	}

	orch := orchestrator.New(client, orchestrator.Options{
		TargetCount:         target,
		MaxAttempts:         cfg.Generation.MaxAttempts,
		MinYield:            cfg.Generation.MinYield,
		SimilarityThreshold: cfg.Dedupe.SimilarityThreshold,
		VariationSeed:       seed,
	})

	batch, err := orch.Generate(cmd.Context(), orchestrator.GenerateRequest{
		SourceCode: string(source),
		Suite:      suite,
		Framework:  framework,
		Session:    session,
	})
	if err != nil {
		return err
	}

	// Persist the grown corpus; entries already stored are skipped.
	if err := db.AppendEntries(record.ID, session.Corpus().Entries()); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	outPath := generateOut
	if outPath == "" {
		outPath = defaultOutPath(sourcePath)
	}
	if err := os.WriteFile(outPath, []byte(batch.Text), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	printStatus("✓", fmt.Sprintf("wrote %s (%d entries)", outPath, len(batch.Entries)), color.FgGreen)
	fmt.Println(renderSummary(record.ID, batch, client.Tracker()))

	if generateReport != "" {
		if err := writeReport(generateReport, record.ID, sourcePath, batch); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		printStatus("✓", "report written to "+generateReport, color.FgGreen)
	}

	if generateEnd {
		if err := db.EndSession(record.ID); err != nil {
			return fmt.Errorf("end session: %w", err)
		}
		session.Close()
		printStatus("✓", "session "+record.ID+" ended", color.FgYellow)
	}

	return nil
}

// newGeneratorClient builds the Anthropic client from config.
func newGeneratorClient(cfg *config.Config) (*api.Client, error) {
	apiKey, err := config.GetAPIKey(cfg)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		MaxTokens:     int64(cfg.Anthropic.MaxTokens),
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	return client, nil
}

// resolveSession resumes the requested session, or the active session for
// the source path, or starts a new one.
func resolveSession(db *state.DB, sourcePath, framework string) (*orchestrator.Session, *state.SessionRecord, error) {
	var record *state.SessionRecord

	if generateSessionID != "" {
		rec, err := db.GetSession(generateSessionID)
		if err != nil {
			return nil, nil, fmt.Errorf("session %s: %w", generateSessionID, err)
		}
		if rec.Status != state.SessionActive {
			return nil, nil, fmt.Errorf("session %s is %s", rec.ID, rec.Status)
		}
		record = rec
	} else {
		rec, err := db.FindActiveSession(sourcePath)
		if err != nil {
			return nil, nil, err
		}
		record = rec
	}

	if record == nil {
		session := orchestrator.NewSession()
		record = &state.SessionRecord{
			ID:         session.ID(),
			SourcePath: sourcePath,
			Framework:  framework,
		}
		if err := db.CreateSession(record); err != nil {
			return nil, nil, err
		}
		printStatus("+", "started session "+record.ID, color.FgCyan)
		return session, record, nil
	}

	entries, err := db.LoadEntries(record.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load session corpus: %w", err)
	}
	printStatus("↻", fmt.Sprintf("resumed session %s (%d prior entries)", record.ID, len(entries)), color.FgCyan)
	return orchestrator.ResumeSession(record.ID, entries), record, nil
}

func suiteNameFor(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func defaultOutPath(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	return strings.TrimSuffix(sourcePath, ext) + ".generated.test" + ext
}

// generationReport is the YAML shape written by --report.
type generationReport struct {
	Session  string               `yaml:"session"`
	Source   string               `yaml:"source"`
	Metadata models.BatchMetadata `yaml:"metadata"`
	Entries  []reportEntry        `yaml:"entries"`
}

type reportEntry struct {
	Name string `yaml:"name"`
	Tier string `yaml:"tier"`
}

func writeReport(path, sessionID, sourcePath string, batch *models.OutputBatch) error {
	report := generationReport{
		Session:  sessionID,
		Source:   sourcePath,
		Metadata: batch.Metadata,
	}
	for _, e := range batch.Entries {
		report.Entries = append(report.Entries, reportEntry{Name: e.Name, Tier: e.Tier.String()})
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
