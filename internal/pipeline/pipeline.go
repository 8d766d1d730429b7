package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cartscope/advisor-cli/internal/config"
	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/pool"
	"github.com/cartscope/advisor-cli/internal/scoring"
	"github.com/cartscope/advisor-cli/internal/store"
	"github.com/cartscope/advisor-cli/internal/trace"
)

// Capabilities bundles the pluggable stage implementations.
type Capabilities struct {
	Identifier Identifier
	Reviews    ReviewSearcher
	Prices     PriceSearcher
	Web        WebSearcher
	Extractor  CandidateExtractor
	Assessor   RiskAssessor
	Narrator   Narrator
}

// Pipeline runs the analysis stage graph:
// Identify -> {Research, Scout} -> Critique -> Score/Rank -> Finalize.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	identifier Identifier
	reviews    ReviewSearcher
	prices     PriceSearcher
	web        WebSearcher
	extractor  CandidateExtractor
	assessor   RiskAssessor
	narrator   Narrator
	prefs      PreferenceSource
	memory     CandidateMemory

	searchPool *pool.Pool
	enrichPool *pool.Pool
	assessPool *pool.Pool
}

// New builds a pipeline over the given store and capabilities. The store also
// serves as the preference source and candidate memory.
func New(cfg *config.Config, st store.Store, caps Capabilities) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      st,
		identifier: caps.Identifier,
		reviews:    caps.Reviews,
		prices:     caps.Prices,
		web:        caps.Web,
		extractor:  caps.Extractor,
		assessor:   caps.Assessor,
		narrator:   caps.Narrator,
		prefs:      st,
		memory:     st,
		searchPool: pool.New(cfg.Scout.Concurrency, cfg.Scout.UnitTimeout()),
		enrichPool: pool.New(cfg.Scout.Concurrency, cfg.Scout.UnitTimeout()),
		assessPool: pool.New(cfg.Scout.Concurrency, 0),
	}
}

// Run executes a full analysis. A run always reaches a terminal state and
// carries a payload; degraded stages and lost persistence are flagged on the
// result rather than surfaced as errors. The returned error is non-nil only
// when identification or score assembly fails terminally.
func (p *Pipeline) Run(ctx context.Context, input model.AnalysisInput) (*model.AnalysisResult, error) {
	var runID string
	run, err := p.store.CreateRun(ctx, input)
	if err != nil {
		// The run proceeds under a local ID; later store writes will fail
		// the same way and are logged, not fatal.
		runID = uuid.NewString()
		zap.L().Error("create run failed, continuing without persistence",
			zap.String("run_id", runID), zap.Error(err))
	} else {
		runID = run.ID
	}

	tr := trace.New()
	ctx = trace.WithContext(ctx, tr)
	result := &model.AnalysisResult{
		RunID:        runID,
		StageTimings: make(map[string]int64),
	}
	if run == nil {
		result.Degraded = append(result.Degraded, "persistence")
	}

	var mu sync.Mutex
	trackStage := func(name string, degradedOK bool, fn func(context.Context) error) error {
		stageCtx, cancel := context.WithTimeout(ctx, p.cfg.Pipeline.StageTimeout())
		start := time.Now()
		err := fn(stageCtx)
		cancel()
		elapsed := time.Since(start).Milliseconds()

		sr := model.StageResult{Name: name, Status: model.StageStatusComplete, Duration: elapsed}
		if err != nil {
			sr.Error = err.Error()
			sr.Status = model.StageStatusFailed
			if degradedOK {
				sr.Status = model.StageStatusDegraded
			}
		}

		mu.Lock()
		result.Stages = append(result.Stages, sr)
		result.StageTimings[name] = elapsed
		if sr.Status == model.StageStatusDegraded {
			result.Degraded = append(result.Degraded, name)
		}
		mu.Unlock()

		tr.Addf(name, "status=%s duration=%dms", sr.Status, elapsed)
		return err
	}

	// Identify. The only stage whose failure is terminal.
	p.setStatus(ctx, runID, model.RunStatusIdentifying)
	var identity model.ProductIdentity
	if err := trackStage("identify", false, func(ctx context.Context) error {
		var err error
		identity, err = p.runIdentify(ctx, input)
		return err
	}); err != nil {
		return p.failRun(ctx, runID, result, err), err
	}
	result.Identity = identity

	weights := p.resolveWeights(ctx, input)

	// Research and Scout fork. Siblings never skip each other; each failure
	// degrades its own slot only. The scout branch deduplicates and enriches
	// its proposals before the join so critique and scoring see finished
	// candidates.
	p.setStatus(ctx, runID, model.RunStatusResearching)
	var (
		research     ResearchData
		alternatives []model.Candidate
	)
	g := &errgroup.Group{}
	g.Go(func() error {
		_ = trackStage("research", true, func(ctx context.Context) error {
			var err error
			research, err = p.runResearch(ctx, identity.CanonicalName)
			return err
		})
		return nil
	})
	g.Go(func() error {
		_ = trackStage("scout", true, func(ctx context.Context) error {
			proposals, err := p.runScout(ctx, identity.CanonicalName, weights)
			if err != nil {
				return err
			}
			if len(proposals) == 0 {
				return nil
			}
			alternatives = p.runEnrich(ctx, identity.CanonicalName, proposals)
			p.recordCandidates(ctx, identity.CanonicalName, alternatives)
			return nil
		})
		return nil
	})
	_ = g.Wait()

	p.setStatus(ctx, runID, model.RunStatusCritiquing)
	var critique model.RiskReport
	_ = trackStage("critique", true, func(ctx context.Context) error {
		var err error
		critique, err = p.runCritique(ctx, identity.CanonicalName, research)
		return err
	})

	// Score and rank.
	p.setStatus(ctx, runID, model.RunStatusScoring)
	main := p.mainCandidate(identity, research)
	candidates := append([]model.Candidate{main}, alternatives...)

	var ranked *model.RankedResult
	if err := trackStage("score", false, func(ctx context.Context) error {
		var err error
		ranked, err = p.scoreAndRank(ctx, candidates, weights, critique, research.EcoContext != "")
		return err
	}); err != nil {
		return p.failRun(ctx, runID, result, err), err
	}
	result.Ranked = ranked

	_ = trackStage("finalize", true, func(ctx context.Context) error {
		payload, err := p.runFinalize(ctx, identity, ranked)
		mu.Lock()
		result.Payload = payload
		mu.Unlock()
		return err
	})
	result.Payload.Degraded = result.Degraded

	if err := p.store.UpdateRunResult(ctx, runID, result); err != nil {
		zap.L().Error("persist run result failed", zap.String("run_id", runID), zap.Error(err))
	}
	zap.L().Debug("run trace", zap.String("run_id", runID), zap.Any("entries", tr.Entries()))
	return result, nil
}

// scoreAndRank assesses per-candidate risk, scores every candidate, and ranks
// them. The critique report is reused for its own subject; other candidates
// get an individual assessment with the neutral default as fallback.
func (p *Pipeline) scoreAndRank(ctx context.Context, candidates []model.Candidate, weights model.PreferenceWeights, critique model.RiskReport, hasEcoContext bool) (*model.RankedResult, error) {
	risks := make([]model.RiskReport, len(candidates))
	tasks := make([]pool.Task, len(candidates))
	for i := range candidates {
		tasks[i] = func(ctx context.Context) error {
			risks[i] = p.riskFor(ctx, candidates[i], critique)
			return nil
		}
	}
	_ = p.assessPool.Run(ctx, tasks)

	avg := scoring.MarketAverageCents(candidates)
	scored := make([]model.ScoredCandidate, 0, len(candidates))
	for i, c := range candidates {
		scored = append(scored, scoring.Score(c, avg, weights, risks[i], hasEcoContext))
	}
	return scoring.Rank(scored, avg, weights)
}

// mainCandidate assembles the identified product's own candidate from the
// research output.
func (p *Pipeline) mainCandidate(identity model.ProductIdentity, research ResearchData) model.Candidate {
	main := model.Candidate{
		Name:       identity.CanonicalName,
		IsMain:     true,
		Reviews:    research.Reviews,
		Enrichment: model.EnrichmentOK,
	}

	for i := range research.Offers {
		if research.Offers[i].Valid() {
			main.BestOffer = &research.Offers[i]
			break
		}
	}

	if main.BestOffer != nil {
		main.PurchaseLink = main.BestOffer.URL
		main.ImageURL = main.BestOffer.Thumbnail
	} else {
		main.PurchaseLink = model.FallbackShoppingLink(main.Name)
		main.Enrichment = model.EnrichmentPartial
	}
	if main.ImageURL == "" {
		for _, r := range research.Reviews {
			if len(r.Images) > 0 {
				main.ImageURL = r.Images[0]
				break
			}
		}
	}
	main.PriceText = model.PriceTextFor(main.BestOffer)
	return main
}

// resolveWeights merges session, stored, and learned preference sources into
// the run's effective weights. Preference lookups are best-effort.
func (p *Pipeline) resolveWeights(ctx context.Context, input model.AnalysisInput) model.PreferenceWeights {
	var stored, learned model.PreferenceOverlay
	if p.prefs != nil && input.UserID != "" {
		prefs, err := p.prefs.GetPreferences(ctx, input.UserID)
		if err != nil {
			zap.L().Warn("stored preferences lookup failed", zap.Error(err))
		} else if prefs != nil {
			stored = *prefs
		}

		factors, err := p.prefs.GetLearnedWeights(ctx, input.UserID)
		if err != nil {
			zap.L().Warn("learned weights lookup failed", zap.Error(err))
		} else if factors != nil {
			learned = model.PreferenceOverlay{Factors: factors}
		}
	}
	return scoring.ResolveWeights(input.Session, stored, learned)
}

// recordCandidates writes enriched alternatives to candidate memory.
// Best-effort.
func (p *Pipeline) recordCandidates(ctx context.Context, productName string, candidates []model.Candidate) {
	if p.memory == nil {
		return
	}
	for _, c := range candidates {
		if c.Enrichment == model.EnrichmentFailed {
			continue
		}
		if err := p.memory.RecordCandidate(ctx, productName, c); err != nil {
			zap.L().Warn("candidate memory record failed",
				zap.String("candidate", c.Name), zap.Error(err))
		}
	}
}

func (p *Pipeline) setStatus(ctx context.Context, runID string, status model.RunStatus) {
	if err := p.store.UpdateRunStatus(ctx, runID, status); err != nil {
		zap.L().Warn("run status update failed",
			zap.String("run_id", runID), zap.String("status", string(status)), zap.Error(err))
	}
}

// failRun finalizes a run that cannot proceed. The run still gets a payload
// carrying the error text.
func (p *Pipeline) failRun(ctx context.Context, runID string, result *model.AnalysisResult, cause error) *model.AnalysisResult {
	result.Payload = model.Payload{
		Outcome:           OutcomeAlternatives,
		IdentifiedProduct: result.Identity.CanonicalName,
		Summary:           "The analysis could not be completed.",
		Error:             cause.Error(),
		Degraded:          result.Degraded,
	}
	if err := p.store.UpdateRunResult(ctx, runID, result); err != nil {
		zap.L().Error("persist failed run result", zap.String("run_id", runID), zap.Error(err))
	}
	p.setStatus(ctx, runID, model.RunStatusFailed)
	return result
}
