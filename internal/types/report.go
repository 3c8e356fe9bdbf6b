package types

// Report wraps a MatchResult with how it was produced.
type Report struct {
	RunID          string        `json:"runId"`
	JobID          string        `json:"jobId,omitempty"`
	JobTitle       string        `json:"jobTitle"`
	Company        string        `json:"company,omitempty"`
	Requested      Strategy      `json:"requestedStrategy"`
	Used           Strategy      `json:"usedStrategy"`
	ModelUsed      string        `json:"modelUsed"`
	Fallback       bool          `json:"fallback"`
	FallbackReason string        `json:"fallbackReason,omitempty"`
	DurationMs     int64         `json:"durationMs"`
	Result         MatchResult   `json:"result"`
	History        HistoryRecord `json:"history"`
}

// RankReport is the result of matching one resume against many jobs, best first.
type RankReport struct {
	YearsExperience int      `json:"yearsExperience"`
	ResumeSkills    []string `json:"resumeSkills"`
	Strategy        Strategy `json:"strategy"`
	Results         []Report `json:"results"`
}

// SkillListing is a list of canonical skills, either the vocabulary or the
// skills found in a document.
type SkillListing struct {
	Source string   `json:"source"`
	Count  int      `json:"count"`
	Skills []string `json:"skills"`
}
