package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"resumatch/internal/errors"
	"resumatch/internal/types"
)

var fencedJSON = regexp.MustCompile("(?is)```\\s*json\\s*(.*?)```")

// Aliases accepted for each assessment field, preferred name first.
var (
	matchScoreKeys      = []string{"match_score", "overall_match_score", "score"}
	skillMatchKeys      = []string{"skill_match_score", "skill_match"}
	experienceMatchKeys = []string{"experience_match_score", "experience_match"}
	matchedSkillsKeys   = []string{"matched_skills", "matching_skills"}
	missingSkillsKeys   = []string{"missing_skills_from_resume", "missing_skills"}
	suggestionsKeys     = []string{"suggestions_for_candidate", "suggestions", "Suggestions"}
	summaryKeys         = []string{"suitability_summary", "summary"}
)

// ExtractJSON pulls the JSON object out of an LLM reply. A ```json fenced
// block wins; otherwise the text between the first '{' and the last '}' is
// used. ok is false when neither is present.
func ExtractJSON(raw string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		if body := strings.TrimSpace(m[1]); body != "" {
			return body, true
		}
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// ParseAssessment normalizes an LLM reply into a MatchResult. Scores are
// coerced to integers and clamped; missing lists become empty. The error is a
// MalformedResponse AppError.
func ParseAssessment(raw string) (types.MatchResult, error) {
	body, ok := ExtractJSON(raw)
	if !ok {
		return types.MatchResult{}, errors.NewMalformedResponse("no JSON object in LLM response", nil)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return types.MatchResult{}, errors.NewMalformedResponse("invalid JSON in LLM response", err)
	}

	result := types.MatchResult{
		MatchScore:      coerceScore(lookup(data, matchScoreKeys)),
		SkillMatch:      coerceScore(lookup(data, skillMatchKeys)),
		ExperienceMatch: coerceScore(lookup(data, experienceMatchKeys)),
		MatchedSkills:   coerceList(lookup(data, matchedSkillsKeys)),
		MissingSkills:   coerceList(lookup(data, missingSkillsKeys)),
		Suggestions:     coerceText(lookup(data, suggestionsKeys)),
		Detail:          coerceText(lookup(data, summaryKeys)),
	}
	return result.Clamped(), nil
}

func lookup(data map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func coerceScore(v any) int {
	f := coerceFloat(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Max(math.Min(f, 100), 0)
	return int(math.Round(f))
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case bool:
		return math.NaN()
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// coerceList accepts a JSON array or a comma-separated string.
func coerceList(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceText(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(val, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func coerceText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
