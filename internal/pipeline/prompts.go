package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/smartpause/internal/domain"
)

// buildAnalysisPrompt embeds the serialized transactions in the framing instruction.
func buildAnalysisPrompt(txs []domain.Transaction) (string, error) {
	if txs == nil {
		txs = []domain.Transaction{}
	}
	payload, err := json.Marshal(txs)
	if err != nil {
		return "", fmt.Errorf("buildAnalysisPrompt: marshal transactions: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analyze these recurring payments: ")
	b.Write(payload)
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Theme: %q. Focus on behavioral archetypes.\n", AnalysisTheme)
	b.WriteString("Return one analysis per merchant, keeping the same structure.\n\n")

	b.WriteString("Field rules:\n")
	b.WriteString("- \"regretProbability\" is exactly one of \"Low\", \"Medium\", \"High\".\n")
	b.WriteString("- \"intentScore\" and \"confidence\" are integers from 0 to 100.\n")
	b.WriteString("- \"counterfactualSavings.followAnnual\" is the annual cost if the recommendation is followed.\n")
	b.WriteString("- \"counterfactualSavings.ignoreAnnual\" is the annual cost if nothing changes.\n")
	b.WriteString("- \"counterfactualSavings.wastedSpendEstimate\" is ignoreAnnual minus followAnnual.\n")
	b.WriteString("- All money values are non-negative numbers in the transactions' currency.\n")

	return b.String(), nil
}
