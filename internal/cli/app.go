package cli

import (
	"context"
	"fmt"
	"time"

	"resumatch/internal/ai"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/jobs"
	"resumatch/internal/matcher"
	"resumatch/internal/ml"
	"resumatch/internal/observability"
	"resumatch/internal/scoring"
	"resumatch/internal/skills"
	"resumatch/internal/types"
)

const shutdownTimeout = 10 * time.Second

// appOptions selects the long-running pieces a command needs.
type appOptions struct {
	observability bool
	watch         bool
}

// app is the wired matching stack shared by every command.
type app struct {
	cfg       *config.Config
	logger    *errors.Logger
	om        *observability.ObservabilityManager
	metrics   *observability.Metrics
	jobs      jobs.Source
	seed      []string
	vocab     *skills.Vocabulary
	watcher   *skills.Watcher
	generator ai.TextGenerator
	matcher   *matcher.Orchestrator
}

// newApp wires config into a ready Orchestrator. Missing LLM credentials and
// an unreachable job source are logged and tolerated; the rule based strategy
// still works without either.
func newApp(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if opts.observability {
		om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize observability: %w", err)
		}
		a.om = om
	}
	a.metrics = a.om.GetMetrics()

	seed, err := skills.SeedSkills(cfg.Match.SeedSkillsFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.seed = seed

	src, err := jobs.Open(ctx, cfg.Jobs)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.jobs = src

	a.vocab = skills.NewVocabulary(skills.BuildVocabulary(nil, seed))
	a.rebuildVocabulary(ctx)

	if opts.watch {
		if err := a.startWatcher(); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.matcher = matcher.New(a.matcherOptions()...)
	return a, nil
}

func (a *app) matcherOptions() []matcher.Option {
	opts := []matcher.Option{
		matcher.WithScorer(scoring.NewScorer(scoring.Thresholds(a.cfg.Match.ExperienceThresholds))),
		matcher.WithVocabulary(a.vocab),
		matcher.WithLogger(a.logger),
		matcher.WithMetrics(a.metrics),
		matcher.WithLLMTimeout(a.cfg.Match.LLMTimeout),
		matcher.WithRankConcurrency(a.cfg.Match.RankConcurrency),
	}

	if a.cfg.ML.Enabled {
		kind := ml.ParseKind(a.cfg.ML.Kind)
		loader := ml.NewServingLoader(a.cfg.ML, nil, a.logger)
		handle := ml.NewHandle(kind, loader, a.logger)
		opts = append(opts, matcher.WithML(ml.NewAdapter(handle, a.logger, a.metrics)))
	}

	aiCfg := a.cfg.GetMatchAIConfig()
	gen, err := ai.NewGenerator(&aiCfg, a.logger)
	if err != nil {
		a.logger.Warn("LLM backend unavailable, llm strategy will fall back to rule-based",
			"error", err.Error())
	} else {
		a.generator = gen
	}
	prompts := a.cfg.GetMatchPrompts()
	llm := ai.NewLLMScorer(a.generator, ai.Prompts{System: prompts.System, User: prompts.User}, aiCfg.Model, a.logger).
		WithMetrics(a.metrics)
	opts = append(opts, matcher.WithLLM(llm))

	return opts
}

// rebuildVocabulary refreshes the vocabulary from the job source, keeping the
// current one on failure.
func (a *app) rebuildVocabulary(ctx context.Context) {
	size, err := a.vocab.Rebuild(ctx, a.jobs, a.seed)
	if err != nil {
		a.logger.LogError(err, "Vocabulary rebuild failed, keeping previous vocabulary",
			"source", a.jobs.Name())
		return
	}
	a.metrics.RecordVocabulary(ctx, size, true)
	a.logger.Debug("Vocabulary built", "size", size, "source", a.jobs.Name())
}

// startWatcher rebuilds the vocabulary when the jobs file changes.
func (a *app) startWatcher() error {
	fileSource, ok := a.jobs.(*jobs.FileSource)
	if !ok || !a.cfg.Jobs.Watch {
		return nil
	}
	a.watcher = skills.NewWatcher([]string{fileSource.Path()}, a.cfg.Jobs.DebounceDelay, func() {
		a.rebuildVocabulary(context.Background())
	}, a.logger)
	if err := a.watcher.Start(); err != nil {
		return fmt.Errorf("failed to watch jobs file: %w", err)
	}
	return nil
}

// defaultStrategy is the configured strategy used when a command gets none.
func (a *app) defaultStrategy() types.Strategy {
	return types.ParseStrategy(a.cfg.Match.DefaultStrategy)
}

// strategyFor resolves a flag value, keeping unknown names so the
// orchestrator can report them.
func (a *app) strategyFor(flag string) types.Strategy {
	if flag == "" {
		return a.defaultStrategy()
	}
	if s, ok := types.LookupStrategy(flag); ok {
		return s
	}
	return types.Strategy(flag)
}

// Close releases watchers, backends and exporters.
func (a *app) Close() {
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.LogError(err, "Failed to stop jobs watcher")
		}
	}
	if a.generator != nil {
		if err := a.generator.Close(); err != nil {
			a.logger.LogError(err, "Failed to close LLM client")
		}
	}
	if a.jobs != nil {
		if err := a.jobs.Close(); err != nil {
			a.logger.LogError(err, "Failed to close job source")
		}
	}
	if a.om != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.om.Shutdown(ctx); err != nil {
			a.logger.LogError(err, "Failed to shutdown observability")
		}
	}
}
