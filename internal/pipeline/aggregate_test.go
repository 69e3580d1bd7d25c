package pipeline

import (
	"testing"

	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/shopspring/decimal"
)

func TestAggregateRecoverableSpend(t *testing.T) {
	tests := []struct {
		name     string
		analyses []domain.SubscriptionAnalysis
		want     string
	}{
		{name: "empty", analyses: nil, want: "0"},
		{name: "single archetype", analyses: Bootstrap()[:1], want: "81.88"},
		{name: "bootstrap set", analyses: Bootstrap(), want: "369.64"},
		{
			name: "zero delta",
			analyses: []domain.SubscriptionAnalysis{{
				CounterfactualSavings: domain.CounterfactualSavings{
					FollowAnnual: money("120"),
					IgnoreAnnual: money("120"),
				},
			}},
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateRecoverableSpend(tt.analyses)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("AggregateRecoverableSpend() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAggregateRecoverableSpend_OrderIndependent(t *testing.T) {
	a := Bootstrap()
	b := []domain.SubscriptionAnalysis{a[2], a[0], a[1]}
	if !AggregateRecoverableSpend(a).Equal(AggregateRecoverableSpend(b)) {
		t.Error("aggregate depends on order")
	}
}

func TestAggregateRecoverableSpend_IgnoresReportedWaste(t *testing.T) {
	a := Bootstrap()[:1]
	a[0].CounterfactualSavings.WastedSpendEstimate = money("999")
	if got := AggregateRecoverableSpend(a); got.String() != "81.88" {
		t.Errorf("AggregateRecoverableSpend() = %s, want 81.88", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(Bootstrap())

	if s.AnalysisCount != 3 {
		t.Errorf("AnalysisCount = %d", s.AnalysisCount)
	}
	if s.RecoverableSpend.String() != "369.64" || s.ReportedWasted.String() != "369.64" {
		t.Errorf("totals = %s / %s", s.RecoverableSpend, s.ReportedWasted)
	}
	if s.ByRegret[domain.RegretHigh] != 2 || s.ByRegret[domain.RegretLow] != 1 || s.ByRegret[domain.RegretMedium] != 0 {
		t.Errorf("ByRegret = %v", s.ByRegret)
	}
	if len(s.Items) != 3 || s.Items[1].Name != "Adobe Creative" || s.Items[1].Recoverable.String() != "155.88" {
		t.Errorf("Items = %+v", s.Items)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.AnalysisCount != 0 || !s.RecoverableSpend.IsZero() || len(s.Items) != 0 {
		t.Errorf("Summarize(nil) = %+v", s)
	}
	if _, ok := s.ByRegret[domain.RegretMedium]; !ok {
		t.Error("every regret level should be present")
	}
}

func TestBootstrap(t *testing.T) {
	first := Bootstrap()
	if len(first) != 3 {
		t.Fatalf("len = %d, want 3", len(first))
	}
	names := []string{"Netflix", "Adobe Creative", "Disney+"}
	for i, a := range first {
		if a.Name != names[i] {
			t.Errorf("analysis %d = %q, want %q", i, a.Name, names[i])
		}
		if err := a.Validate(); err != nil {
			t.Errorf("%s: %v", a.Name, err)
		}
	}

	first[0].Name = "changed"
	first[0].ExplanationSignals[0] = "changed"
	second := Bootstrap()
	if second[0].Name != "Netflix" || second[0].ExplanationSignals[0] != "Low Engagement" {
		t.Error("Bootstrap must return a fresh copy on each call")
	}
}
