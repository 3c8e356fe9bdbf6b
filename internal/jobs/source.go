// Package jobs reads job postings from the job board. Every source here is
// read-only.
package jobs

import (
	"context"
	"fmt"
	"strings"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/resume"
	"resumatch/internal/types"
)

// Source supplies job records.
type Source interface {
	List(ctx context.Context) ([]types.JobRecord, error)
	Get(ctx context.Context, id string) (types.JobRecord, error)
	Name() string
	Close() error
}

// Open creates the source selected by cfg.Source.
func Open(ctx context.Context, cfg config.JobsConfig) (Source, error) {
	switch strings.ToLower(cfg.Source) {
	case "", "none":
		return None(), nil
	case "file":
		return NewFileSource(cfg.Path), nil
	case "sqlite", "postgres":
		return OpenSQL(ctx, cfg)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported job source: %s", cfg.Source), nil)
	}
}

// None returns a source with no jobs.
func None() Source {
	return emptySource{}
}

type emptySource struct{}

func (emptySource) List(context.Context) ([]types.JobRecord, error) { return nil, nil }

func (emptySource) Get(_ context.Context, id string) (types.JobRecord, error) {
	return types.JobRecord{}, notFound(id)
}

func (emptySource) Name() string { return "none" }
func (emptySource) Close() error { return nil }

func notFound(id string) error {
	return errors.NewValidationError(errors.ErrCodeJobNotFound, "job not found", nil).
		WithContext("job_id", id)
}

// IsNotFound reports whether err means the requested job does not exist.
func IsNotFound(err error) bool {
	return errors.HasCode(err, errors.ErrCodeJobNotFound)
}

func sourceFailed(msg string, cause error) error {
	return errors.NewIOError(errors.ErrCodeJobSourceFailed, msg, cause)
}

// CleanDescription strips markup from descriptions that were stored as HTML.
// Plain text is returned trimmed.
func CleanDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	if !looksLikeHTML(desc) {
		return desc
	}
	text, err := resume.ExtractHTML(context.Background(), strings.NewReader(desc))
	if err != nil || strings.TrimSpace(text) == "" {
		return desc
	}
	return text
}

func looksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	return i >= 0 && strings.IndexByte(s[i:], '>') > 0
}

func normalize(job types.JobRecord) types.JobRecord {
	job.Description = CleanDescription(job.Description)
	job.Title = strings.TrimSpace(job.Title)
	job.SkillsRequired = strings.TrimSpace(job.SkillsRequired)
	return job
}
