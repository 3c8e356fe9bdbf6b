package cli

import (
	"context"
	"fmt"
	"strings"

	"resumatch/internal/common"
	"resumatch/internal/jobs"
	"resumatch/internal/skills"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [resume-file] [job-file]",
	Short: "Score a resume against one job posting",
	Long: `Score a resume against one job posting.

The job comes from job-file when given: a YAML or JSON job record (or a list
of them, picked with --job-id), or a plain text description whose skills are
taken from the vocabulary. Without job-file, --job-id is looked up in the
configured job source.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if matchConfig.OutputFormat == "" {
			matchConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if len(args) == 1 && matchJobID == "" {
			return fmt.Errorf("either a job file or --job-id is required")
		}
		return common.ValidateOutputFormat(matchConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runMatch,
}

var (
	matchConfig   common.CommandConfig
	matchJobID    string
	matchStrategy string
)

func init() {
	matchCmd.Flags().StringVarP(&matchConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	matchCmd.Flags().StringVar(&matchConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	matchCmd.Flags().StringVar(&matchJobID, "job-id", "", "Job ID to select from the job file or the configured job source")
	matchCmd.Flags().StringVarP(&matchStrategy, "strategy", "s", "", "Scoring strategy: rule_based, ml_model or llm (default from config)")

	_ = matchCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = matchCmd.RegisterFlagCompletionFunc("strategy", completeStrategies)
}

type matchInput struct {
	resume string
	job    types.JobRecord
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	matchConfig.MaxFileSize = cfg.App.MaxFileSize
	strategy := a.strategyFor(matchStrategy)

	createInput := func(contents []string) (matchInput, error) {
		input := matchInput{resume: contents[0]}
		if len(contents) == 2 {
			job, err := jobFromFile(contents[1], matchJobID, a.vocab)
			if err != nil {
				return matchInput{}, err
			}
			input.job = job
			return input, nil
		}
		job, err := a.jobs.Get(cmd.Context(), matchJobID)
		if err != nil {
			return matchInput{}, err
		}
		input.job = job
		return input, nil
	}

	logDetails := func(input matchInput, cfg common.CommandConfig) {
		logger.Info("Starting resume match",
			"resume_chars", len(input.resume),
			"job_title", input.job.DisplayTitle(),
			"strategy", strategy,
			"output_format", cfg.OutputFormat)
	}

	matchOperation := func(ctx context.Context, input matchInput) (types.Report, error) {
		rec := a.matcher.ParseResume(input.resume)
		return a.matcher.MatchWithReport(ctx, rec, input.job, strategy), nil
	}

	return common.RunDocumentCommand(
		cmd.Context(),
		logger,
		matchConfig,
		args,
		createInput,
		matchOperation,
		logDetails,
	)
}

// jobFromFile reads a job from YAML/JSON records, or treats text as a plain
// description whose required skills are whatever the vocabulary recognises.
func jobFromFile(text, id string, vocab *skills.Vocabulary) (types.JobRecord, error) {
	records, err := jobs.ParseJobs([]byte(text))
	if err != nil {
		if strings.TrimSpace(text) == "" {
			return types.JobRecord{}, fmt.Errorf("job file is empty")
		}
		return types.JobRecord{
			Description:    text,
			SkillsRequired: strings.Join(vocab.Extract(text).Sorted(), ", "),
		}, nil
	}
	if len(records) == 0 {
		return types.JobRecord{}, fmt.Errorf("job file contains no jobs")
	}
	if id == "" {
		return records[0], nil
	}
	for _, job := range records {
		if job.ID == id {
			return job, nil
		}
	}
	return types.JobRecord{}, fmt.Errorf("job %q not found in job file", id)
}

func completeStrategies(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(types.StrategyRuleBased),
		string(types.StrategyMLModel),
		string(types.StrategyLLM),
	}, cobra.ShellCompDirectiveNoFileComp
}
