package types

import (
	"encoding/json"
	"sort"
	"strings"
)

// SkillSet is a set of canonical (lowercased, trimmed) skill tokens.
type SkillSet map[string]struct{}

// CanonicalSkill returns the canonical form of a skill token.
func CanonicalSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewSkillSet builds a set from raw tokens, dropping empty ones.
func NewSkillSet(items ...string) SkillSet {
	s := make(SkillSet, len(items))
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts the canonical form of skill. Blank skills are ignored.
func (s SkillSet) Add(skill string) {
	if c := CanonicalSkill(skill); c != "" {
		s[c] = struct{}{}
	}
}

// Has reports whether the canonical form of skill is a member.
func (s SkillSet) Has(skill string) bool {
	_, ok := s[CanonicalSkill(skill)]
	return ok
}

func (s SkillSet) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order. Never nil.
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the members of s that are also in other.
func (s SkillSet) Intersect(other SkillSet) SkillSet {
	out := make(SkillSet)
	for k := range s {
		if _, ok := other[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Difference returns the members of s missing from other.
func (s SkillSet) Difference(other SkillSet) SkillSet {
	out := make(SkillSet)
	for k := range s {
		if _, ok := other[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Union returns a new set holding the members of both sets.
func (s SkillSet) Union(other SkillSet) SkillSet {
	out := make(SkillSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s SkillSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array, canonicalizing each member.
func (s *SkillSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewSkillSet(items...)
	return nil
}
