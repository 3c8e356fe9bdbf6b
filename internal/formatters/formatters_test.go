package formatters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resumatch/internal/types"
)

func sampleReport() types.Report {
	return types.Report{
		JobTitle:       "Data Engineer",
		Company:        "Acme",
		Requested:      types.StrategyLLM,
		Used:           types.StrategyRuleBased,
		ModelUsed:      "Rule-Based Fallback",
		Fallback:       true,
		FallbackReason: "malformed llm response",
		Result: types.MatchResult{
			MatchScore:      77,
			SkillMatch:      67,
			ExperienceMatch: 100,
			MatchedSkills:   []string{"python", "sql"},
			MissingSkills:   []string{"aws"},
			Suggestions:     "Add cloud experience.",
		},
	}
}

func TestFormatReport(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{format: "text", want: []string{"Data Engineer", "77/100", "67/100", "Rule-Based Fallback", "malformed llm response", "- aws", "Add cloud experience."}},
		{format: "markdown", want: []string{"# Match: Data Engineer", "| Match | 77 |", "## Missing Skills", "- aws", "> Fell back from llm"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := GlobalRegistry.Format(sampleReport(), tt.format)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleReport(), "json")
	require.NoError(t, err)

	var decoded types.Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 77, decoded.Result.MatchScore)
	assert.Equal(t, types.StrategyRuleBased, decoded.Used)
}

func TestFormatRankReport(t *testing.T) {
	second := sampleReport()
	second.JobTitle = "Analyst"
	second.Company = ""
	second.Fallback = false
	second.Result.MatchScore = 40
	second.Result.MissingSkills = nil

	ranked := types.RankReport{
		YearsExperience: 3,
		ResumeSkills:    []string{"python", "sql"},
		Strategy:        types.StrategyRuleBased,
		Results:         []types.Report{sampleReport(), second},
	}

	text, err := GlobalRegistry.Format(ranked, "text")
	require.NoError(t, err)
	assert.Contains(t, text, " 1. [ 77] Data Engineer @ Acme")
	assert.Contains(t, text, " 2. [ 40] Analyst")
	assert.Contains(t, text, "missing: none")

	md, err := GlobalRegistry.Format(ranked, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "| 1 | Data Engineer | Acme | 77 | 67 | 100 | aws |")

	empty, err := GlobalRegistry.Format(types.RankReport{Strategy: types.StrategyLLM}, "text")
	require.NoError(t, err)
	assert.Contains(t, empty, "No jobs to rank.")
}

func TestFormatSkillListing(t *testing.T) {
	listing := types.SkillListing{Source: "vocabulary", Count: 2, Skills: []string{"go", "sql"}}

	text, err := GlobalRegistry.Format(listing, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "2 skills")
	assert.Contains(t, text, "- sql")

	md, err := GlobalRegistry.Format(listing, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# Skills (vocabulary)")
}

func TestFormatUnknown(t *testing.T) {
	_, err := GlobalRegistry.Format(map[string]int{"a": 1}, "text")
	assert.Error(t, err)

	_, err = GlobalRegistry.Format(sampleReport(), "xml")
	assert.Error(t, err)

	_, err = (&ReportTextFormatter{}).Format("not a report")
	assert.Error(t, err)
}
