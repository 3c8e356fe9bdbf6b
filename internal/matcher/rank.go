package matcher

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
	"resumatch/internal/types"
)

// Rank matches one resume against every job and returns the reports best
// first. Ties are broken by job title, then job id.
func (o *Orchestrator) Rank(ctx context.Context, rec types.ResumeRecord, jobs []types.JobRecord, strategy types.Strategy) []types.Report {
	reports := make([]types.Report, len(jobs))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			reports[i] = o.MatchWithReport(ctx, rec, job, strategy)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.Result.MatchScore != b.Result.MatchScore {
			return a.Result.MatchScore > b.Result.MatchScore
		}
		if a.JobTitle != b.JobTitle {
			return a.JobTitle < b.JobTitle
		}
		return a.JobID < b.JobID
	})
	return reports
}

// RankReport ranks and keeps the top limit results. limit <= 0 keeps all.
func (o *Orchestrator) RankReport(ctx context.Context, rec types.ResumeRecord, jobs []types.JobRecord, strategy types.Strategy, limit int) types.RankReport {
	reports := o.Rank(ctx, rec, jobs, strategy)
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return types.RankReport{
		YearsExperience: rec.YearsExperience,
		ResumeSkills:    rec.Skills.Sorted(),
		Strategy:        strategy,
		Results:         reports,
	}
}
