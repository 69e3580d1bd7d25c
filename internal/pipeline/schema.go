package pipeline

import (
	"google.golang.org/genai"
)

// analysisFields lists every top-level key of an analysis object in schema order.
// All of them are required.
var analysisFields = []string{
	"name",
	"billingCycle",
	"cost",
	"intentScore",
	"behavioralCategory",
	"regretProbability",
	"recommendedAction",
	"recommendedTiming",
	"explanationSignals",
	"humanExplanation",
	"counterfactualSavings",
	"confidence",
	"assumption",
}

var counterfactualFields = []string{
	"followAnnual",
	"ignoreAnnual",
	"wastedSpendEstimate",
}

// analysisSchema is the response schema sent with every analysis request.
// The model is constrained to a JSON array of analysis objects.
func analysisSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	num := func() *genai.Schema { return &genai.Schema{Type: genai.TypeNumber} }
	integer := func() *genai.Schema { return &genai.Schema{Type: genai.TypeInteger} }

	counterfactual := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"followAnnual":        num(),
			"ignoreAnnual":        num(),
			"wastedSpendEstimate": num(),
		},
		Required:         counterfactualFields,
		PropertyOrdering: counterfactualFields,
	}

	item := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":               str(),
			"billingCycle":       str(),
			"cost":               num(),
			"intentScore":        integer(),
			"behavioralCategory": str(),
			"regretProbability": {
				Type: genai.TypeString,
				Enum: []string{"Low", "Medium", "High"},
			},
			"recommendedAction":     str(),
			"recommendedTiming":     str(),
			"explanationSignals":    {Type: genai.TypeArray, Items: str()},
			"humanExplanation":      str(),
			"counterfactualSavings": counterfactual,
			"confidence":            integer(),
			"assumption":            str(),
		},
		Required:         analysisFields,
		PropertyOrdering: analysisFields,
	}

	return &genai.Schema{
		Type:  genai.TypeArray,
		Items: item,
	}
}
