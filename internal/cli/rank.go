package cli

import (
	"context"
	"fmt"

	"resumatch/internal/common"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

var rankCmd = &cobra.Command{
	Use:   "rank [resume-file]",
	Short: "Rank job postings for a resume",
	Long: `Score a resume against every job in the configured job source (or the
file given with --jobs) and print the best matches first.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if rankConfig.OutputFormat == "" {
			rankConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if rankLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}
		return common.ValidateOutputFormat(rankConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runRank,
}

var (
	rankConfig   common.CommandConfig
	rankLimit    int
	rankStrategy string
	rankJobsFile string
)

func init() {
	rankCmd.Flags().StringVarP(&rankConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	rankCmd.Flags().StringVar(&rankConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	rankCmd.Flags().IntVarP(&rankLimit, "limit", "n", 0, "Maximum number of jobs to show (default from config, 0 means config value)")
	rankCmd.Flags().StringVarP(&rankStrategy, "strategy", "s", "", "Scoring strategy: rule_based, ml_model or llm (default from config)")
	rankCmd.Flags().StringVar(&rankJobsFile, "jobs", "", "YAML or JSON jobs file to rank against instead of the configured source")

	_ = rankCmd.RegisterFlagCompletionFunc("strategy", completeStrategies)
}

type rankInput struct {
	resume string
	jobs   []types.JobRecord
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if rankJobsFile != "" {
		cfg.Jobs.Source = "file"
		cfg.Jobs.Path = rankJobsFile
	}

	a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	rankConfig.MaxFileSize = cfg.App.MaxFileSize
	strategy := a.strategyFor(rankStrategy)
	limit := rankLimit
	if limit == 0 {
		limit = cfg.Match.RankLimit
	}

	createInput := func(contents []string) (rankInput, error) {
		list, err := a.jobs.List(cmd.Context())
		if err != nil {
			return rankInput{}, err
		}
		if len(list) == 0 {
			return rankInput{}, fmt.Errorf("job source %q has no jobs", a.jobs.Name())
		}
		return rankInput{resume: contents[0], jobs: list}, nil
	}

	logDetails := func(input rankInput, cfg common.CommandConfig) {
		logger.Info("Starting job ranking",
			"resume_chars", len(input.resume),
			"jobs", len(input.jobs),
			"limit", limit,
			"strategy", strategy,
			"output_format", cfg.OutputFormat)
	}

	rankOperation := func(ctx context.Context, input rankInput) (types.RankReport, error) {
		rec := a.matcher.ParseResume(input.resume)
		return a.matcher.RankReport(ctx, rec, input.jobs, strategy, limit), nil
	}

	return common.RunDocumentCommand(
		cmd.Context(),
		logger,
		rankConfig,
		args,
		createInput,
		rankOperation,
		logDetails,
	)
}
