package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/pool"
)

// Preference thresholds above which the scout shifts its search strategy.
const strategyThreshold = 0.7

// scoutStrategy picks query modifiers from the resolved preference weights.
func scoutStrategy(w model.PreferenceWeights) (modifier, strategy string) {
	switch {
	case w.PriceSensitivity > strategyThreshold:
		return "cheaper alternative", "best budget alternative"
	case w.Quality > strategyThreshold:
		return "premium alternative", "better than"
	default:
		return "best alternative", "competitor"
	}
}

// scoutQueries builds the market-context searches for a product under the
// chosen strategy.
func scoutQueries(name, modifier string, limit int) []string {
	queries := []string{
		fmt.Sprintf("%s to %s %d reddit", modifier, name, time.Now().Year()),
		fmt.Sprintf("%s vs competition %d", name, time.Now().Year()),
	}
	if limit > 0 && limit < len(queries) {
		queries = queries[:limit]
	}
	return queries
}

// runScout discovers alternative products. Remembered candidates from earlier
// runs seed the proposal list; live search context feeds the extractor for
// fresh ones. Best-effort throughout.
func (p *Pipeline) runScout(ctx context.Context, name string, weights model.PreferenceWeights) ([]CandidateProposal, error) {
	proposals := p.rememberedProposals(ctx, name)

	modifier, strategy := scoutStrategy(weights)
	queries := scoutQueries(name, modifier, p.cfg.Scout.SearchQueries)

	var (
		mu      sync.Mutex
		results []SearchResult
	)
	tasks := make([]pool.Task, 0, len(queries))
	for _, q := range queries {
		tasks = append(tasks, func(ctx context.Context) error {
			hits, err := p.web.Search(ctx, q)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, hits...)
			mu.Unlock()
			return nil
		})
	}
	errs := p.searchPool.Run(ctx, tasks)

	var searchErr error
	for _, err := range errs {
		if err != nil {
			searchErr = err
		}
	}
	results = dedupeResults(results)

	if len(results) == 0 {
		if len(proposals) > 0 {
			zap.L().Warn("scout search empty, using remembered candidates",
				zap.String("product", name), zap.Int("remembered", len(proposals)))
			return proposals, nil
		}
		return nil, searchErr
	}

	extracted, err := p.extractor.ExtractCandidates(ctx, name, strategy, results)
	if err != nil {
		if len(proposals) > 0 {
			return proposals, nil
		}
		return nil, err
	}

	zap.L().Info("scout extracted candidates",
		zap.String("product", name),
		zap.String("strategy", strategy),
		zap.Int("extracted", len(extracted)),
		zap.Int("remembered", len(proposals)))
	return append(extracted, proposals...), nil
}

// rememberedProposals pulls previously discovered alternatives from candidate
// memory. Absent or failing memory returns nothing.
func (p *Pipeline) rememberedProposals(ctx context.Context, name string) []CandidateProposal {
	if p.memory == nil {
		return nil
	}
	remembered, err := p.memory.LookupCandidates(ctx, name)
	if err != nil {
		zap.L().Warn("candidate memory lookup failed", zap.Error(err))
		return nil
	}
	proposals := make([]CandidateProposal, 0, len(remembered))
	for _, c := range remembered {
		proposals = append(proposals, CandidateProposal{Name: c.Name, Reason: c.Reason})
	}
	return proposals
}

// dedupeResults removes search hits whose URL has already been seen,
// preserving input order.
func dedupeResults(results []SearchResult) []SearchResult {
	seen := make(map[string]bool, len(results))
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if r.URL != "" && seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}
