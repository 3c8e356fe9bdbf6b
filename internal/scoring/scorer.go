// Package scoring implements the deterministic rule-based scorer. It has no
// external dependencies and cannot fail, so it is the last-resort fallback for
// every other strategy.
package scoring

import (
	"math"
	"sort"
	"strings"

	"resumatch/internal/types"
)

// DefaultSuggestion is the generic advice attached to rule-based results.
const DefaultSuggestion = "Consider adding the missing skills to your resume and highlighting relevant projects and achievements that demonstrate them. Quantify your experience where possible and tailor your summary to the job description."

const (
	skillWeight      = 0.7
	experienceWeight = 0.3

	// Partial experience credit scales towards this value and is capped at
	// partialExperienceCap.
	partialExperienceScale = 70
	partialExperienceCap   = 80
	noExperienceScore      = 10
)

// Thresholds maps an experience level keyword to the years it requires.
type Thresholds map[string]int

// DefaultThresholds returns the built-in level table. Lead and principal are
// product choices and can be overridden through configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		"entry":     0,
		"mid":       2,
		"senior":    5,
		"lead":      7,
		"principal": 10,
	}
}

// Scorer is the rule-based scorer. The zero value is not usable; use NewScorer.
type Scorer struct {
	levels []levelThreshold
}

type levelThreshold struct {
	keyword string
	years   int
}

// NewScorer builds a scorer over t merged on top of DefaultThresholds.
func NewScorer(t Thresholds) *Scorer {
	merged := DefaultThresholds()
	for k, v := range t {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			merged[k] = max(0, v)
		}
	}

	levels := make([]levelThreshold, 0, len(merged))
	for k, v := range merged {
		levels = append(levels, levelThreshold{keyword: k, years: v})
	}
	// Most demanding level first so "senior lead" resolves to lead, then longer
	// keywords first so "mid-senior" style overlaps stay deterministic.
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].years != levels[j].years {
			return levels[i].years > levels[j].years
		}
		if len(levels[i].keyword) != len(levels[j].keyword) {
			return len(levels[i].keyword) > len(levels[j].keyword)
		}
		return levels[i].keyword < levels[j].keyword
	})
	return &Scorer{levels: levels}
}

// Threshold returns the years required by a free-form experience level. The
// level is matched case-insensitively as a substring; unknown levels need 0.
func (s *Scorer) Threshold(level string) int {
	level = strings.ToLower(level)
	for _, l := range s.levels {
		if strings.Contains(level, l.keyword) {
			return l.years
		}
	}
	return 0
}

// Thresholds returns a copy of the active table.
func (s *Scorer) Thresholds() Thresholds {
	out := make(Thresholds, len(s.levels))
	for _, l := range s.levels {
		out[l.keyword] = l.years
	}
	return out
}

// Score computes the rule-based match between a resume and a job.
func (s *Scorer) Score(resumeSkills, jobSkills types.SkillSet, resumeYears int, jobLevel string) types.MatchResult {
	matched := jobSkills.Intersect(resumeSkills)
	missing := jobSkills.Difference(resumeSkills)

	skill := SkillMatch(len(matched), jobSkills.Len())
	experience := ExperienceMatch(resumeYears, s.Threshold(jobLevel))

	return types.MatchResult{
		MatchScore:      Combine(skill, experience),
		SkillMatch:      skill,
		ExperienceMatch: experience,
		MatchedSkills:   matched.Sorted(),
		MissingSkills:   missing.Sorted(),
		Suggestions:     DefaultSuggestion,
	}
}

// SkillMatch is the rounded percentage of required skills that are present.
func SkillMatch(matched, required int) int {
	if required <= 0 {
		return 0
	}
	return types.ClampScore(round(float64(matched) / float64(required) * 100))
}

// ExperienceMatch scores resume years against the years a level requires.
func ExperienceMatch(years, threshold int) int {
	years = max(0, years)
	switch {
	case years >= threshold:
		return 100
	case threshold > 0 && years > 0:
		v := round(float64(years) / float64(threshold) * partialExperienceScale)
		return max(0, min(partialExperienceCap, v))
	default:
		return noExperienceScore
	}
}

// Combine weights skill and experience into the overall match score.
func Combine(skill, experience int) int {
	return types.ClampScore(round(skillWeight*float64(skill) + experienceWeight*float64(experience)))
}

func round(v float64) int {
	return int(math.Round(v))
}
