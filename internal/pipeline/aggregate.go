package pipeline

import (
	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/shopspring/decimal"
)

// AggregateRecoverableSpend sums ignoreAnnual - followAnnual over all analyses.
// An empty sequence yields zero. No rounding is applied.
func AggregateRecoverableSpend(analyses []domain.SubscriptionAnalysis) decimal.Decimal {
	total := decimal.Zero
	for _, a := range analyses {
		total = total.Add(Contribution(a))
	}
	return total
}

// Contribution is the recoverable spend of a single analysis.
func Contribution(a domain.SubscriptionAnalysis) decimal.Decimal {
	return a.CounterfactualSavings.Recoverable()
}

// ItemContribution is one row of a Summary.
type ItemContribution struct {
	Name                string                   `json:"name"`
	RegretProbability   domain.RegretProbability `json:"regretProbability"`
	Recoverable         decimal.Decimal          `json:"recoverable"`
	WastedSpendEstimate decimal.Decimal          `json:"wastedSpendEstimate"`
}

// Summary is the portfolio view shown next to the analyses.
type Summary struct {
	AnalysisCount    int                              `json:"analysisCount"`
	RecoverableSpend decimal.Decimal                  `json:"recoverableSpend"`
	ReportedWasted   decimal.Decimal                  `json:"reportedWastedSpend"`
	ByRegret         map[domain.RegretProbability]int `json:"byRegret"`
	Items            []ItemContribution               `json:"items"`
}

// Summarize builds a Summary. RecoverableSpend always equals AggregateRecoverableSpend;
// ReportedWasted is the sum of the generator-supplied estimates and may differ.
func Summarize(analyses []domain.SubscriptionAnalysis) Summary {
	s := Summary{
		AnalysisCount:    len(analyses),
		RecoverableSpend: AggregateRecoverableSpend(analyses),
		ReportedWasted:   decimal.Zero,
		ByRegret:         make(map[domain.RegretProbability]int, len(domain.RegretLevels)),
		Items:            make([]ItemContribution, 0, len(analyses)),
	}
	for _, level := range domain.RegretLevels {
		s.ByRegret[level] = 0
	}

	for _, a := range analyses {
		s.ByRegret[a.RegretProbability]++
		s.ReportedWasted = s.ReportedWasted.Add(a.CounterfactualSavings.WastedSpendEstimate)
		s.Items = append(s.Items, ItemContribution{
			Name:                a.Name,
			RegretProbability:   a.RegretProbability,
			Recoverable:         Contribution(a),
			WastedSpendEstimate: a.CounterfactualSavings.WastedSpendEstimate,
		})
	}
	return s
}
