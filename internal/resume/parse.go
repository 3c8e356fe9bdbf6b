// Package resume turns extracted resume text into a ResumeRecord.
package resume

import (
	"regexp"
	"strconv"

	"resumatch/internal/skills"
	"resumatch/internal/types"
)

// Checked in order; the first match wins.
var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\+?\s+years? of experience`),
	regexp.MustCompile(`(?i)experience\s+of\s+(\d+)\s+years`),
	regexp.MustCompile(`(?i)worked\s+for\s+(\d+)\s+years`),
}

// ExtractYears returns the years of experience stated in text, or 0.
func ExtractYears(text string) int {
	for _, re := range experiencePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		years, err := strconv.Atoi(m[1])
		if err != nil || years < 0 {
			return 0
		}
		return years
	}
	return 0
}

// Parse builds a ResumeRecord from raw text using vocab for skill detection.
func Parse(text string, vocab types.SkillSet) types.ResumeRecord {
	return types.ResumeRecord{
		RawText:         text,
		Skills:          skills.ExtractFromText(text, vocab),
		YearsExperience: ExtractYears(text),
	}
}
