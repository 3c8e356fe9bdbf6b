package skills

import (
	"context"
	"sync/atomic"
	"time"

	"resumatch/internal/errors"
	"resumatch/internal/types"
)

// JobLister supplies the job postings a vocabulary is built from.
type JobLister interface {
	List(ctx context.Context) ([]types.JobRecord, error)
}

// Vocabulary holds the process-wide skill vocabulary. Readers always see a
// complete set: rebuilds construct a new set and swap the pointer.
type Vocabulary struct {
	current   atomic.Pointer[types.SkillSet]
	rebuilds  atomic.Int64
	updatedAt atomic.Int64
}

// NewVocabulary creates a holder seeded with initial. The holder owns initial
// from now on.
func NewVocabulary(initial types.SkillSet) *Vocabulary {
	v := &Vocabulary{}
	v.Store(initial)
	return v
}

// Load returns the current vocabulary. Callers must treat it as read-only.
func (v *Vocabulary) Load() types.SkillSet {
	if p := v.current.Load(); p != nil {
		return *p
	}
	return types.SkillSet{}
}

// Store publishes a new vocabulary.
func (v *Vocabulary) Store(s types.SkillSet) {
	if s == nil {
		s = types.SkillSet{}
	}
	v.current.Store(&s)
	v.updatedAt.Store(time.Now().Unix())
}

// Rebuild reads every job from src and swaps in seed ∪ job skills. On error
// the previous vocabulary stays in place.
func (v *Vocabulary) Rebuild(ctx context.Context, src JobLister, seed []string) (int, error) {
	jobs, err := src.List(ctx)
	if err != nil {
		return 0, errors.NewIOError(errors.ErrCodeJobSourceFailed, "failed to list jobs for vocabulary rebuild", err)
	}
	next := BuildVocabulary(jobs, seed)
	v.Store(next)
	v.rebuilds.Add(1)
	return next.Len(), nil
}

// Extract finds known skills in text using the current vocabulary.
func (v *Vocabulary) Extract(text string) types.SkillSet {
	return ExtractFromText(text, v.Load())
}

// Size returns the number of skills in the current vocabulary.
func (v *Vocabulary) Size() int {
	return v.Load().Len()
}

// Stats reports vocabulary size and rebuild bookkeeping.
func (v *Vocabulary) Stats() map[string]any {
	return map[string]any{
		"size":       v.Size(),
		"rebuilds":   v.rebuilds.Load(),
		"updated_at": time.Unix(v.updatedAt.Load(), 0).UTC().Format(time.RFC3339),
	}
}
