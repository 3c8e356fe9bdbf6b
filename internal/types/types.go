package types

import "strings"

// ResumeRecord is a parsed resume as handed over by the document extractor.
type ResumeRecord struct {
	RawText         string   `json:"rawText"`
	Skills          SkillSet `json:"skills"`
	YearsExperience int      `json:"yearsExperience"`
}

// JobRecord represents a job posting supplied by the job board. The core only
// reads it.
type JobRecord struct {
	ID              string `json:"id,omitempty" yaml:"id" db:"id"`
	Title           string `json:"title" yaml:"job_title" db:"job_title"`
	Company         string `json:"company" yaml:"company_name" db:"company_name"`
	Description     string `json:"description" yaml:"job_description" db:"job_description"`
	Location        string `json:"location,omitempty" yaml:"location" db:"location"`
	JobType         string `json:"jobType,omitempty" yaml:"job_type" db:"job_type"`
	SalaryRange     string `json:"salaryRange,omitempty" yaml:"salary_range" db:"salary_range"`
	ExperienceLevel string `json:"experienceLevel" yaml:"experience_level" db:"experience_level"`
	SkillsRequired  string `json:"skillsRequired" yaml:"skills_required" db:"skills_required"`
	Industry        string `json:"industry,omitempty" yaml:"industry" db:"industry"`
	PostedDate      string `json:"postedDate,omitempty" yaml:"posted_date" db:"posted_date"`
	EmploymentMode  string `json:"employmentMode,omitempty" yaml:"employment_mode" db:"employment_mode"`
}

// DisplayTitle returns the title used in history records.
func (j JobRecord) DisplayTitle() string {
	if strings.TrimSpace(j.Title) == "" {
		return "N/A"
	}
	return j.Title
}

// MatchResult is the canonical output of every scoring strategy.
type MatchResult struct {
	MatchScore      int      `json:"matchScore"`
	SkillMatch      int      `json:"skillMatch"`
	ExperienceMatch int      `json:"experienceMatch"`
	MatchedSkills   []string `json:"matchedSkills"`
	MissingSkills   []string `json:"missingSkills"`
	Suggestions     string   `json:"suggestions,omitempty"`
	Detail          string   `json:"detail,omitempty"`
}

// Clamped returns a copy of r with every score forced into [0,100] and nil
// skill lists replaced by empty ones.
func (r MatchResult) Clamped() MatchResult {
	r.MatchScore = ClampScore(r.MatchScore)
	r.SkillMatch = ClampScore(r.SkillMatch)
	r.ExperienceMatch = ClampScore(r.ExperienceMatch)
	if r.MatchedSkills == nil {
		r.MatchedSkills = []string{}
	}
	if r.MissingSkills == nil {
		r.MissingSkills = []string{}
	}
	return r
}

// ClampScore forces a score into [0,100].
func ClampScore(v int) int {
	return max(0, min(100, v))
}
