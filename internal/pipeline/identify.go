package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/cartscope/advisor-cli/internal/model"
)

// runIdentify resolves the input signal into a product identity. Failure here
// is terminal for the run: nothing downstream can operate without a product
// name.
func (p *Pipeline) runIdentify(ctx context.Context, input model.AnalysisInput) (model.ProductIdentity, error) {
	if input.Empty() {
		return model.ProductIdentity{}, model.NewInputError("no query or image supplied")
	}

	identity, err := p.identifier.Identify(ctx, input)
	if err != nil {
		return model.ProductIdentity{}, err
	}
	if !identity.Valid() {
		return model.ProductIdentity{}, model.NewInputError("could not identify a product from the input")
	}

	zap.L().Info("product identified",
		zap.String("product", identity.CanonicalName),
		zap.String("brand", identity.Brand),
		zap.String("category", identity.Category))
	return identity, nil
}
