package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resumatch/internal/common"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/skills"
	"resumatch/internal/types"
)

const testResume = "Data engineer with 3 years of experience in Python and SQL."

const testJobsYAML = `
- id: job-1
  job_title: Data Engineer
  company_name: Acme
  experience_level: Mid
  skills_required: Python, SQL, AWS
- id: job-2
  job_title: Platform Engineer
  experience_level: Senior
  skills_required: Rust, Terraform
- id: job-3
  job_title: Analyst
  experience_level: Entry
  skills_required: SQL
`

type fixture struct {
	dir    string
	cfg    *config.Config
	resume string
	jobs   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		resume: writeFile(t, dir, "resume.txt", testResume),
		jobs:   writeFile(t, dir, "jobs.yaml", testJobsYAML),
	}
	f.cfg = &config.Config{
		App: config.AppConfig{
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      1 << 20,
		},
		Match: config.MatchConfig{DefaultStrategy: "rule_based", RankLimit: 10},
		Jobs:  config.JobsConfig{Source: "file", Path: f.jobs},
	}
	return f
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func resetFlags() {
	matchConfig = common.CommandConfig{}
	matchJobID = ""
	matchStrategy = ""
	rankConfig = common.CommandConfig{}
	rankLimit = 0
	rankStrategy = ""
	rankJobsFile = ""
	vocabConfig = common.CommandConfig{}
	vocabExtract = ""
}

func runCLI(t *testing.T, cfg *config.Config, args ...string) error {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)
	// Subcommands inherit the root context only while their own is unset.
	for _, c := range rootCmd.Commands() {
		c.SetContext(nil) //nolint:staticcheck
	}
	rootCmd.SetArgs(args)
	return Execute(context.Background(), cfg, errors.NewDiscardLogger())
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestMatchCommandWithJobFile(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "out", "report.json")

	require.NoError(t, runCLI(t, f.cfg, "match", f.resume, f.jobs, "--job-id", "job-1", "-o", out))

	var report types.Report
	readJSON(t, out, &report)
	assert.Equal(t, "Data Engineer", report.JobTitle)
	assert.Equal(t, types.StrategyRuleBased, report.Used)
	assert.False(t, report.Fallback)
	assert.Equal(t, 77, report.Result.MatchScore)
	assert.Equal(t, 67, report.Result.SkillMatch)
	assert.Equal(t, 100, report.Result.ExperienceMatch)
	assert.Equal(t, []string{"aws"}, report.Result.MissingSkills)
}

func TestMatchCommandFromJobSource(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "report.json")

	require.NoError(t, runCLI(t, f.cfg, "match", f.resume, "--job-id", "job-3", "-o", out))

	var report types.Report
	readJSON(t, out, &report)
	assert.Equal(t, "Analyst", report.JobTitle)
	assert.Equal(t, 100, report.Result.MatchScore)
}

func TestMatchCommandErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no job", []string{"match", f.resume}},
		{"unknown job id", []string{"match", f.resume, "--job-id", "nope"}},
		{"unknown id in file", []string{"match", f.resume, f.jobs, "--job-id", "nope"}},
		{"unsupported format", []string{"match", f.resume, f.jobs, "--format", "xml"}},
		{"missing resume", []string{"match", filepath.Join(f.dir, "missing.txt"), f.jobs}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, runCLI(t, f.cfg, tt.args...))
		})
	}
}

func TestRankCommand(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "rank.json")

	require.NoError(t, runCLI(t, f.cfg, "rank", f.resume, "--limit", "2", "-o", out))

	var report types.RankReport
	readJSON(t, out, &report)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "job-3", report.Results[0].JobID)
	assert.Equal(t, "job-1", report.Results[1].JobID)
	assert.Equal(t, 3, report.YearsExperience)
	assert.Equal(t, []string{"python", "sql"}, report.ResumeSkills)
}

func TestRankCommandJobsOverride(t *testing.T) {
	f := newFixture(t)
	f.cfg.Jobs = config.JobsConfig{Source: "none"}
	out := filepath.Join(f.dir, "rank.json")

	assert.Error(t, runCLI(t, f.cfg, "rank", f.resume, "-o", out))

	require.NoError(t, runCLI(t, f.cfg, "rank", f.resume, "--jobs", f.jobs, "-o", out))
	var report types.RankReport
	readJSON(t, out, &report)
	assert.Len(t, report.Results, 3)
}

func TestRepeatedExecuteUsesCurrentConfig(t *testing.T) {
	first := newFixture(t)
	out := filepath.Join(first.dir, "first.json")
	require.NoError(t, runCLI(t, first.cfg, "rank", first.resume, "-o", out))
	require.NoError(t, os.Remove(first.jobs))

	second := newFixture(t)
	out = filepath.Join(second.dir, "second.json")
	require.NoError(t, runCLI(t, second.cfg, "rank", second.resume, "-o", out))

	var report types.RankReport
	readJSON(t, out, &report)
	assert.Len(t, report.Results, 3)
}

func TestVocabCommand(t *testing.T) {
	f := newFixture(t)

	t.Run("vocabulary", func(t *testing.T) {
		out := filepath.Join(f.dir, "vocab.json")
		require.NoError(t, runCLI(t, f.cfg, "vocab", "-o", out))

		var listing types.SkillListing
		readJSON(t, out, &listing)
		assert.Equal(t, "vocabulary:file", listing.Source)
		assert.Equal(t, len(listing.Skills), listing.Count)
		assert.Subset(t, listing.Skills, []string{"python", "rust", "terraform", "aws"})
	})

	t.Run("document", func(t *testing.T) {
		out := filepath.Join(f.dir, "extract.json")
		require.NoError(t, runCLI(t, f.cfg, "vocab", "--extract", f.resume, "-o", out))

		var listing types.SkillListing
		readJSON(t, out, &listing)
		assert.Equal(t, f.resume, listing.Source)
		assert.Equal(t, []string{"python", "sql"}, listing.Skills)
	})
}

func TestJobFromFile(t *testing.T) {
	vocab := skills.NewVocabulary(skills.BuildVocabulary(nil, skills.DefaultSeedSkills))

	t.Run("first record", func(t *testing.T) {
		job, err := jobFromFile(testJobsYAML, "", vocab)
		require.NoError(t, err)
		assert.Equal(t, "job-1", job.ID)
	})

	t.Run("by id", func(t *testing.T) {
		job, err := jobFromFile(testJobsYAML, "job-2", vocab)
		require.NoError(t, err)
		assert.Equal(t, "Platform Engineer", job.Title)
	})

	t.Run("plain description", func(t *testing.T) {
		job, err := jobFromFile("Looking for someone strong in Python and AWS.", "", vocab)
		require.NoError(t, err)
		assert.Equal(t, "aws, python", job.SkillsRequired)
		assert.Contains(t, job.Description, "Python and AWS")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := jobFromFile("  \n", "", vocab)
		assert.Error(t, err)
	})
}

func TestStrategyFor(t *testing.T) {
	a := &app{cfg: &config.Config{Match: config.MatchConfig{DefaultStrategy: "llm"}}}

	assert.Equal(t, types.StrategyLLM, a.strategyFor(""))
	assert.Equal(t, types.StrategyRuleBased, a.strategyFor("rule_based"))
	assert.Equal(t, types.Strategy("quantum"), a.strategyFor("quantum"))
}
