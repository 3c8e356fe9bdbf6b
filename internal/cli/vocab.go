package cli

import (
	"context"

	"resumatch/internal/common"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "List the skill vocabulary or the skills found in a document",
	Long: `Print the skill vocabulary built from the seed skills and the configured
job source. With --extract, print the vocabulary skills found in a document
instead, the same way resumes are parsed before matching.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if vocabConfig.OutputFormat == "" {
			vocabConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(vocabConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runVocab,
}

var (
	vocabConfig  common.CommandConfig
	vocabExtract string
)

func init() {
	vocabCmd.Flags().StringVarP(&vocabConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	vocabCmd.Flags().StringVar(&vocabConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	vocabCmd.Flags().StringVarP(&vocabExtract, "extract", "e", "", "Document to extract skills from")
}

func runVocab(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	a, err := newApp(cmd.Context(), cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	vocabConfig.MaxFileSize = cfg.App.MaxFileSize

	if vocabExtract == "" {
		listing := skillListing("vocabulary:"+a.jobs.Name(), a.vocab.Load())
		return common.NewOutputHandler(logger).HandleOutput(listing, vocabConfig)
	}

	createInput := func(contents []string) (string, error) {
		return contents[0], nil
	}
	extract := func(_ context.Context, text string) (types.SkillListing, error) {
		return skillListing(vocabExtract, a.vocab.Extract(text)), nil
	}
	return common.RunDocumentCommand(cmd.Context(), logger, vocabConfig, []string{vocabExtract}, createInput, extract, nil)
}

func skillListing(source string, set types.SkillSet) types.SkillListing {
	sorted := set.Sorted()
	return types.SkillListing{Source: source, Count: len(sorted), Skills: sorted}
}
