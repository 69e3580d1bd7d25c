package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RegretProbability is the model's estimate of how likely the user is to regret keeping a subscription.
type RegretProbability string

const (
	RegretLow    RegretProbability = "Low"
	RegretMedium RegretProbability = "Medium"
	RegretHigh   RegretProbability = "High"
)

// RegretLevels lists the accepted values in display order.
var RegretLevels = []RegretProbability{RegretLow, RegretMedium, RegretHigh}

// Valid reports whether r is one of the known levels.
func (r RegretProbability) Valid() bool {
	for _, l := range RegretLevels {
		if r == l {
			return true
		}
	}
	return false
}

// CounterfactualSavings pairs the annual cost of following the recommendation
// with the annual cost of ignoring it.
type CounterfactualSavings struct {
	FollowAnnual        decimal.Decimal `json:"followAnnual"`
	IgnoreAnnual        decimal.Decimal `json:"ignoreAnnual"`
	WastedSpendEstimate decimal.Decimal `json:"wastedSpendEstimate"` // generator-supplied, not re-derived
}

// Recoverable is ignoreAnnual minus followAnnual.
func (c CounterfactualSavings) Recoverable() decimal.Decimal {
	return c.IgnoreAnnual.Sub(c.FollowAnnual)
}

// SubscriptionAnalysis is the behavioral assessment for one merchant.
type SubscriptionAnalysis struct {
	Name                  string                `json:"name"`
	BillingCycle          string                `json:"billingCycle"`
	Cost                  decimal.Decimal       `json:"cost"`
	IntentScore           int                   `json:"intentScore"`
	BehavioralCategory    string                `json:"behavioralCategory"`
	RegretProbability     RegretProbability     `json:"regretProbability"`
	RecommendedAction     string                `json:"recommendedAction"`
	RecommendedTiming     string                `json:"recommendedTiming"`
	ExplanationSignals    []string              `json:"explanationSignals"`
	HumanExplanation      string                `json:"humanExplanation"`
	CounterfactualSavings CounterfactualSavings `json:"counterfactualSavings"`
	Confidence            int                   `json:"confidence"`
	Assumption            string                `json:"assumption"`
}

// Validate checks the boundary constraints that the response schema cannot express.
// intentScore and confidence ranges are intentionally not enforced.
func (a *SubscriptionAnalysis) Validate() error {
	if !a.RegretProbability.Valid() {
		return fmt.Errorf("regretProbability %q is not one of %v", a.RegretProbability, RegretLevels)
	}
	if a.Cost.IsNegative() {
		return fmt.Errorf("cost %s is negative", a.Cost)
	}
	cf := a.CounterfactualSavings
	for name, v := range map[string]decimal.Decimal{
		"followAnnual":        cf.FollowAnnual,
		"ignoreAnnual":        cf.IgnoreAnnual,
		"wastedSpendEstimate": cf.WastedSpendEstimate,
	} {
		if v.IsNegative() {
			return fmt.Errorf("counterfactualSavings.%s %s is negative", name, v)
		}
	}
	return nil
}

// Clone returns a deep copy of a.
func (a SubscriptionAnalysis) Clone() SubscriptionAnalysis {
	if a.ExplanationSignals != nil {
		a.ExplanationSignals = append([]string(nil), a.ExplanationSignals...)
	}
	return a
}

// CloneAnalyses deep-copies a sequence of analyses.
func CloneAnalyses(in []SubscriptionAnalysis) []SubscriptionAnalysis {
	out := make([]SubscriptionAnalysis, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}
