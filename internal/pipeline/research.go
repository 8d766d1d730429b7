package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/pool"
)

// reviewQueries builds the region-qualified review searches for a product.
func reviewQueries(name, region string) []string {
	return []string{
		fmt.Sprintf("%s review %s", name, region),
		fmt.Sprintf("%s review reddit %s", name, region),
		fmt.Sprintf("site:reddit.com %s worth it %s", name, region),
	}
}

// runResearch gathers review evidence, live price offers, and sustainability
// context for the identified product. Every sub-search is best-effort; the
// returned error is non-nil only when nothing at all was collected.
func (p *Pipeline) runResearch(ctx context.Context, name string) (ResearchData, error) {
	var (
		mu      sync.Mutex
		data    ResearchData
		ecoHits []string
	)

	queries := reviewQueries(name, p.cfg.Tavily.Region)
	tasks := make([]pool.Task, 0, len(queries)+2)

	for _, q := range queries {
		tasks = append(tasks, func(ctx context.Context) error {
			snippets, err := p.reviews.SearchReviews(ctx, q)
			if err != nil {
				return err
			}
			mu.Lock()
			data.Reviews = append(data.Reviews, snippets...)
			mu.Unlock()
			return nil
		})
	}

	tasks = append(tasks, func(ctx context.Context) error {
		offers, err := p.prices.SearchPrices(ctx, name)
		if err != nil {
			return err
		}
		mu.Lock()
		data.Offers = model.DedupeOffers(offers)
		mu.Unlock()
		return nil
	})

	tasks = append(tasks, func(ctx context.Context) error {
		snippets, err := p.reviews.SearchReviews(ctx, name+" sustainability environmental impact")
		if err != nil {
			return err
		}
		mu.Lock()
		for _, s := range snippets {
			ecoHits = append(ecoHits, s.Snippet)
		}
		mu.Unlock()
		return nil
	})

	errs := p.searchPool.Run(ctx, tasks)

	data.Reviews = model.DedupeReviews(data.Reviews)
	data.EcoContext = strings.TrimSpace(strings.Join(ecoHits, "\n"))

	failed := 0
	var lastErr error
	for _, err := range errs {
		if err != nil {
			failed++
			lastErr = err
		}
	}
	zap.L().Info("research collected",
		zap.String("product", name),
		zap.Int("reviews", len(data.Reviews)),
		zap.Int("offers", len(data.Offers)),
		zap.Bool("eco_context", data.EcoContext != ""),
		zap.Int("failed_searches", failed))

	if len(data.Reviews) == 0 && len(data.Offers) == 0 && lastErr != nil {
		return data, lastErr
	}
	return data, nil
}
