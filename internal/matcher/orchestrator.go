// Package matcher dispatches a resume/job pair to a scoring strategy and
// guarantees a result. Each backed strategy is attempted once; on failure the
// rule-based scorer answers instead. There are no retries and no chains.
package matcher

import (
	"context"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"resumatch/internal/ai"
	"resumatch/internal/errors"
	"resumatch/internal/ml"
	"resumatch/internal/resume"
	"resumatch/internal/scoring"
	"resumatch/internal/skills"
	"resumatch/internal/types"
)

const (
	LabelRuleBased     = "Rule-Based"
	LabelRuleFallback  = "Rule-Based Fallback"
	MLUnavailableNote  = "ML model unavailable; score computed by the rule-based scorer."
	defaultLLMTimeout  = 20 * time.Second
	defaultConcurrency = 4
)

// State is the phase of a single match run.
type State int

const (
	Dispatching State = iota
	Scoring
	Reconciling
	Done
)

func (s State) String() string {
	switch s {
	case Dispatching:
		return "dispatching"
	case Scoring:
		return "scoring"
	case Reconciling:
		return "reconciling"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Metrics receives one observation per completed run. Implementations must
// be safe for concurrent use.
type Metrics interface {
	RecordMatch(ctx context.Context, requested, used types.Strategy, fallback bool, duration time.Duration, score int)
}

// Orchestrator runs matches. It holds no per-request state and is safe for
// concurrent use.
type Orchestrator struct {
	scorer      *scoring.Scorer
	ml          *ml.Adapter
	llm         *ai.LLMScorer
	vocab       *skills.Vocabulary
	logger      *errors.Logger
	metrics     Metrics
	llmTimeout  time.Duration
	concurrency int
	now         func() time.Time

	runs      atomic.Int64
	fallbacks atomic.Int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithScorer(s *scoring.Scorer) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

func WithML(a *ml.Adapter) Option {
	return func(o *Orchestrator) { o.ml = a }
}

func WithLLM(s *ai.LLMScorer) Option {
	return func(o *Orchestrator) { o.llm = s }
}

func WithVocabulary(v *skills.Vocabulary) Option {
	return func(o *Orchestrator) { o.vocab = v }
}

func WithLogger(l *errors.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLLMTimeout bounds each LLM call. Non-positive values keep the default.
func WithLLMTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.llmTimeout = d
		}
	}
}

// WithRankConcurrency bounds parallel matches during Rank.
func WithRankConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// New creates an Orchestrator. Without options it scores rule-based only,
// with the default thresholds and the seed vocabulary.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		llmTimeout:  defaultLLMTimeout,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.scorer == nil {
		o.scorer = scoring.NewScorer(nil)
	}
	if o.vocab == nil {
		o.vocab = skills.NewVocabulary(types.NewSkillSet(skills.DefaultSeedSkills...))
	}
	if o.logger == nil {
		o.logger = errors.NewDiscardLogger()
	}
	return o
}

func (o *Orchestrator) Scorer() *scoring.Scorer {
	return o.scorer
}

func (o *Orchestrator) Vocabulary() *skills.Vocabulary {
	return o.vocab
}

// ParseResume builds a ResumeRecord against the current vocabulary.
func (o *Orchestrator) ParseResume(text string) types.ResumeRecord {
	return resume.Parse(text, o.vocab.Load())
}

// Match scores a resume against a job. It always returns a result.
func (o *Orchestrator) Match(ctx context.Context, rec types.ResumeRecord, job types.JobRecord, strategy types.Strategy) types.MatchResult {
	return o.MatchWithReport(ctx, rec, job, strategy).Result
}

// run carries one match through its states.
type run struct {
	state     State
	requested types.Strategy
	used      types.Strategy
	model     string
	fallback  string
	result    types.MatchResult
	logger    *errors.Logger
}

func (r *run) advance(s State) {
	r.logger.Debug("Match state", "from", r.state.String(), "to", s.String())
	r.state = s
}

// MatchWithReport is Match plus provenance: run id, strategy used, fallback
// reason, timing and the history record.
func (o *Orchestrator) MatchWithReport(ctx context.Context, rec types.ResumeRecord, job types.JobRecord, strategy types.Strategy) types.Report {
	start := o.now()
	runID := uuid.NewString()
	r := &run{
		state:     Dispatching,
		requested: strategy,
		logger:    o.logger.With("run_id", runID),
	}

	o.dispatch(ctx, r, rec, job)
	r.advance(Done)

	r.result = r.result.Clamped()
	duration := o.now().Sub(start)
	history := types.NewHistoryRecord(start, job, r.model, r.result)

	o.runs.Add(1)
	if r.fallback != "" {
		o.fallbacks.Add(1)
	}
	if o.metrics != nil {
		o.metrics.RecordMatch(ctx, r.requested, r.used, r.fallback != "", duration, r.result.MatchScore)
	}

	args := append([]any{
		"requested_strategy", string(r.requested),
		"used_strategy", string(r.used),
		"fallback_reason", r.fallback,
		"duration_ms", duration.Milliseconds(),
	}, history.LogArgs()...)
	r.logger.Info("Match completed", args...)

	return types.Report{
		RunID:          runID,
		JobID:          job.ID,
		JobTitle:       job.DisplayTitle(),
		Company:        job.Company,
		Requested:      r.requested,
		Used:           r.used,
		ModelUsed:      r.model,
		Fallback:       r.fallback != "",
		FallbackReason: r.fallback,
		DurationMs:     duration.Milliseconds(),
		Result:         r.result,
		History:        history,
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, r *run, rec types.ResumeRecord, job types.JobRecord) {
	strategy, known := types.LookupStrategy(string(r.requested))
	if !known {
		if r.requested != "" {
			r.logger.Warn("Unknown strategy, using rule-based", "strategy", string(r.requested))
		}
		strategy = types.StrategyRuleBased
	}

	r.advance(Scoring)
	switch strategy {
	case types.StrategyMLModel:
		o.scoreML(ctx, r, rec, job)
	case types.StrategyLLM:
		o.scoreLLM(ctx, r, rec, job)
	default:
		r.used = types.StrategyRuleBased
		r.model = LabelRuleBased
		r.result = o.ruleBased(rec, job)
	}
}

func (o *Orchestrator) ruleBased(rec types.ResumeRecord, job types.JobRecord) types.MatchResult {
	return o.scorer.Score(rec.Skills, skills.ParseSkillList(job.SkillsRequired), rec.YearsExperience, job.ExperienceLevel)
}

func (o *Orchestrator) fallBack(r *run, rec types.ResumeRecord, job types.JobRecord, from types.Strategy, reason string) {
	r.logger.Warn("Strategy failed, falling back to rule-based",
		"strategy", string(from),
		"reason", reason)
	r.used = types.StrategyRuleBased
	r.model = LabelRuleFallback
	r.fallback = reason
	r.result = o.ruleBased(rec, job)
}

// requireResumeText rejects resumes the text-based strategies cannot read.
func requireResumeText(rec types.ResumeRecord) error {
	if strings.TrimSpace(rec.RawText) == "" {
		return errors.NewInvalidInput("empty resume text", nil)
	}
	return nil
}

func (o *Orchestrator) scoreML(ctx context.Context, r *run, rec types.ResumeRecord, job types.JobRecord) {
	if err := requireResumeText(rec); err != nil {
		r.logger.LogError(err, "Resume cannot be scored by model", "strategy", string(types.StrategyMLModel))
		o.fallBack(r, rec, job, types.StrategyMLModel, "empty resume text")
		r.result.Detail = MLUnavailableNote
		return
	}

	score, ok := o.ml.Score(ctx, rec.RawText, jobText(job))

	r.advance(Reconciling)
	if !ok {
		o.fallBack(r, rec, job, types.StrategyMLModel, "ml backend unavailable")
		r.result.Detail = MLUnavailableNote
		return
	}

	// The model only yields an overall score; the breakdown is rule-based.
	result := o.ruleBased(rec, job)
	result.MatchScore = int(math.Round(score))
	r.used = types.StrategyMLModel
	r.model = o.ml.Label()
	r.result = result
}

func (o *Orchestrator) scoreLLM(ctx context.Context, r *run, rec types.ResumeRecord, job types.JobRecord) {
	if err := requireResumeText(rec); err != nil {
		r.logger.LogError(err, "Resume cannot be scored by LLM", "strategy", string(types.StrategyLLM))
		o.fallBack(r, rec, job, types.StrategyLLM, "empty resume text")
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, o.llmTimeout)
	defer cancel()
	outcome := o.llm.Score(callCtx, rec.RawText, job)

	r.advance(Reconciling)
	switch outcome.Kind {
	case types.OutcomeSuccess:
		r.used = types.StrategyLLM
		r.model = o.llm.Label()
		r.result = outcome.Result
	case types.OutcomeMalformed:
		r.logger.Warn("LLM returned malformed response", "reason", outcome.Reason)
		o.fallBack(r, rec, job, types.StrategyLLM, "malformed llm response")
	default:
		reason := "llm backend unavailable"
		if outcome.Reason != "" {
			reason += ": " + outcome.Reason
		}
		o.fallBack(r, rec, job, types.StrategyLLM, reason)
	}
}

func jobText(job types.JobRecord) string {
	if strings.TrimSpace(job.Description) != "" {
		return job.Description
	}
	return ai.RenderJob(job)
}

// Stats reports counters for /stats.
func (o *Orchestrator) Stats() map[string]any {
	return map[string]any{
		"runs":            o.runs.Load(),
		"fallbacks":       o.fallbacks.Load(),
		"llm_available":   o.llm.Available(),
		"llm_timeout":     o.llmTimeout.String(),
		"ml_enabled":      o.ml != nil,
		"vocabulary_size": o.vocab.Size(),
		"thresholds":      o.scorer.Thresholds(),
	}
}
