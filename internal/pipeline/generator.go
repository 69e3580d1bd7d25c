package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/rs/zerolog"
)

// Output is the result of one generation call.
type Output struct {
	Analyses []domain.SubscriptionAnalysis
	// RawText is the unparsed model response. It is set even when parsing fails.
	RawText string
}

// Generator derives analyses from a transaction batch through an AnalysisModel.
type Generator struct {
	model AnalysisModel
	log   zerolog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(model AnalysisModel, log zerolog.Logger) *Generator {
	return &Generator{model: model, log: log}
}

// Model returns the identifier of the underlying model.
func (g *Generator) Model() string {
	return g.model.Name()
}

// Generate calls the model with the serialized transactions and parses the response.
// The returned Output is non-nil whenever the model answered, so callers can keep the
// raw text for diagnostics.
func (g *Generator) Generate(ctx context.Context, txs []domain.Transaction) (*Output, error) {
	prompt, err := buildAnalysisPrompt(txs)
	if err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}

	raw, err := g.model.GenerateAnalyses(ctx, prompt, analysisSchema())
	if err != nil {
		return nil, fmt.Errorf("Generate: call model: %w", err)
	}

	out := &Output{RawText: raw}
	analyses, err := parseAnalyses(raw)
	if err != nil {
		return out, fmt.Errorf("Generate: %w", err)
	}
	out.Analyses = analyses

	for _, a := range analyses {
		cf := a.CounterfactualSavings
		if !cf.WastedSpendEstimate.Equal(cf.Recoverable()) {
			g.log.Debug().
				Str("analysis", a.Name).
				Str("wasted_spend_estimate", cf.WastedSpendEstimate.String()).
				Str("recoverable", cf.Recoverable().String()).
				Msg("reported wasted spend differs from counterfactual delta")
		}
	}

	return out, nil
}
