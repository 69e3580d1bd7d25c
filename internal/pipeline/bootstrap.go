package pipeline

import (
	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/shopspring/decimal"
)

// Bootstrap returns the hand-authored archetype set shown before any run succeeds.
// Each call returns a fresh copy.
func Bootstrap() []domain.SubscriptionAnalysis {
	return []domain.SubscriptionAnalysis{
		{
			Name:               "Netflix",
			BillingCycle:       "monthly",
			Cost:               money("15.99"),
			IntentScore:        42,
			BehavioralCategory: "Passive Consumer",
			RegretProbability:  domain.RegretHigh,
			RecommendedAction:  "Pause Era",
			RecommendedTiming:  "Immediate",
			ExplanationSignals: []string{"Low Engagement", "Price Drift", "Category Overlap"},
			HumanExplanation:   "Your consumption metrics show a 60% decay in title completion over the last 3 months. This is a classic 'ghost subscription' pattern.",
			CounterfactualSavings: domain.CounterfactualSavings{
				FollowAnnual:        money("110.00"),
				IgnoreAnnual:        money("191.88"),
				WastedSpendEstimate: money("81.88"),
			},
			Confidence: 94,
			Assumption: "Viewing habits remain at current plateau.",
		},
		{
			Name:               "Adobe Creative",
			BillingCycle:       "monthly",
			Cost:               money("52.99"),
			IntentScore:        89,
			BehavioralCategory: "Professional Power",
			RegretProbability:  domain.RegretLow,
			RecommendedAction:  "Upgrade Annual",
			RecommendedTiming:  "Next Cycle",
			ExplanationSignals: []string{"High Utility", "Tool Depth", "Zero Regret"},
			HumanExplanation:   "Engagement remains at peak professional levels. Transitioning to an annual vault lock will optimize your capital efficiency by 22%.",
			CounterfactualSavings: domain.CounterfactualSavings{
				FollowAnnual:        money("480.00"),
				IgnoreAnnual:        money("635.88"),
				WastedSpendEstimate: money("155.88"),
			},
			Confidence: 98,
			Assumption: "Freelance throughput continues to scale.",
		},
		{
			Name:               "Disney+",
			BillingCycle:       "monthly",
			Cost:               money("10.99"),
			IntentScore:        15,
			BehavioralCategory: "Dormant Node",
			RegretProbability:  domain.RegretHigh,
			RecommendedAction:  "Cancel Vault",
			RecommendedTiming:  "Immediate",
			ExplanationSignals: []string{"Zero Usage", "Redundant Content", "Auto-Renewal Loop"},
			HumanExplanation:   "Our sensors haven't detected a single login event in 68 days. You are effectively donating wealth to a mega-corp.",
			CounterfactualSavings: domain.CounterfactualSavings{
				FollowAnnual:        money("0.00"),
				IgnoreAnnual:        money("131.88"),
				WastedSpendEstimate: money("131.88"),
			},
			Confidence: 99,
			Assumption: "No kids have requested 'Bluey' in the last 24 hours.",
		},
	}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
