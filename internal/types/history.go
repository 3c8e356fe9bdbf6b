package types

import (
	"strings"
	"time"
)

// HistoryTimeLayout is the timestamp layout of history records.
const HistoryTimeLayout = "2006-01-02 15:04:05"

// HistoryRecord is the row shape an external prediction history store expects.
type HistoryRecord struct {
	Timestamp       string `json:"timestamp"`
	JobTitle        string `json:"jobTitle"`
	ModelUsed       string `json:"modelUsed"`
	MatchScore      int    `json:"matchScore"`
	SkillMatch      int    `json:"skillMatch"`
	ExperienceMatch int    `json:"experienceMatch"`
	MissingSkills   string `json:"missingSkills"`
}

// NewHistoryRecord flattens a match into one history row.
func NewHistoryRecord(at time.Time, job JobRecord, modelUsed string, r MatchResult) HistoryRecord {
	return HistoryRecord{
		Timestamp:       at.Format(HistoryTimeLayout),
		JobTitle:        job.DisplayTitle(),
		ModelUsed:       modelUsed,
		MatchScore:      r.MatchScore,
		SkillMatch:      r.SkillMatch,
		ExperienceMatch: r.ExperienceMatch,
		MissingSkills:   strings.Join(r.MissingSkills, ", "),
	}
}

// LogArgs flattens the record into slog key/value pairs.
func (h HistoryRecord) LogArgs() []any {
	return []any{
		"timestamp", h.Timestamp,
		"job_title", h.JobTitle,
		"model_used", h.ModelUsed,
		"match_score", h.MatchScore,
		"skill_match", h.SkillMatch,
		"experience_match", h.ExperienceMatch,
		"missing_skills", h.MissingSkills,
	}
}
