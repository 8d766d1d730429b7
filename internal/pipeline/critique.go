package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/cartscope/advisor-cli/internal/model"
)

// runCritique produces the skeptic risk assessment for a subject. Critique is
// advisory: any failure yields the neutral default report and a degradation
// signal, never an aborted run.
func (p *Pipeline) runCritique(ctx context.Context, subject string, research ResearchData) (model.RiskReport, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Pipeline.CritiqueTimeout())
	defer cancel()

	report, err := p.assessor.AssessRisk(ctx, subject, research)
	if err != nil {
		zap.L().Warn("critique failed, using default report",
			zap.String("subject", subject), zap.Error(err))
		return model.DefaultRiskReport(subject), err
	}
	return report, nil
}

// riskFor returns the risk report to score a candidate with. The critique
// report is reused when it covers this candidate; otherwise a fresh
// assessment runs, falling back to the neutral default.
func (p *Pipeline) riskFor(ctx context.Context, cand model.Candidate, critique model.RiskReport) model.RiskReport {
	if critique.Subject == cand.Name {
		return critique
	}

	research := ResearchData{Reviews: cand.Reviews}
	if cand.BestOffer != nil {
		research.Offers = []model.PriceOffer{*cand.BestOffer}
	}
	report, err := p.runCritique(ctx, cand.Name, research)
	if err != nil {
		return model.DefaultRiskReport(cand.Name)
	}
	return report
}
