// Package skills builds the canonical skill vocabulary and finds known skills
// in free text.
package skills

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"resumatch/internal/types"
)

var (
	wordToken   = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	singleToken = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)
)

// ParseSkillList splits a comma separated skills_required value.
func ParseSkillList(csv string) types.SkillSet {
	return types.NewSkillSet(strings.Split(csv, ",")...)
}

// BuildVocabulary unions the seed list with every skill required by jobs.
func BuildVocabulary(jobs []types.JobRecord, seed []string) types.SkillSet {
	vocab := types.NewSkillSet(seed...)
	for _, job := range jobs {
		for skill := range ParseSkillList(job.SkillsRequired) {
			vocab[skill] = struct{}{}
		}
	}
	return vocab
}

// ExtractFromText returns the vocabulary entries present in text.
//
// Single-word skills match whole word tokens. Skills with spaces or symbols
// ("project management", "c++", "ui/ux design") match as a substring of the
// whitespace-collapsed lowercase text that is not glued to a letter or digit
// on either side.
func ExtractFromText(text string, vocab types.SkillSet) types.SkillSet {
	found := make(types.SkillSet)
	if strings.TrimSpace(text) == "" || len(vocab) == 0 {
		return found
	}

	lowered := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	tokens := make(map[string]struct{})
	for _, tok := range wordToken.FindAllString(lowered, -1) {
		tokens[tok] = struct{}{}
	}

	for skill := range vocab {
		if singleToken.MatchString(skill) {
			if _, ok := tokens[skill]; ok {
				found[skill] = struct{}{}
			}
			continue
		}
		if containsBounded(lowered, skill) {
			found[skill] = struct{}{}
		}
	}
	return found
}

func containsBounded(text, phrase string) bool {
	phrase = strings.Join(strings.Fields(phrase), " ")
	if phrase == "" {
		return false
	}
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], phrase)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(phrase)
		if !isWordByteBefore(text, start) && !isWordByteAt(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordByteBefore(text string, i int) bool {
	r, size := utf8.DecodeLastRuneInString(text[:i])
	return size > 0 && isWordRune(r)
}

func isWordByteAt(text string, i int) bool {
	r, size := utf8.DecodeRuneInString(text[i:])
	return size > 0 && isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
