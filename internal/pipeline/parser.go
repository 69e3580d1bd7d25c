package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/smartpause/internal/domain"
)

// parseAnalyses turns the raw model text into analyses.
// It fails with ErrEmptyResult for an empty array or empty text and with
// ErrSchemaViolation for anything that is not an array of complete analysis objects.
func parseAnalyses(raw string) ([]domain.SubscriptionAnalysis, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("parseAnalyses: %w", ErrEmptyResult)
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		return nil, fmt.Errorf("parseAnalyses: %w: unmarshal array: %w", ErrSchemaViolation, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("parseAnalyses: %w", ErrEmptyResult)
	}

	result := make([]domain.SubscriptionAnalysis, 0, len(items))
	for i, item := range items {
		a, err := parseAnalysis(item)
		if err != nil {
			return nil, fmt.Errorf("parseAnalyses: %w: analysis %d: %w", ErrSchemaViolation, i, err)
		}
		result = append(result, a)
	}

	return result, nil
}

func parseAnalysis(item json.RawMessage) (domain.SubscriptionAnalysis, error) {
	var a domain.SubscriptionAnalysis

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(item, &obj); err != nil {
		return a, fmt.Errorf("not an object: %w", err)
	}
	if obj == nil {
		return a, fmt.Errorf("analysis is null")
	}
	if err := requireFields(obj, analysisFields, ""); err != nil {
		return a, err
	}

	var cf map[string]json.RawMessage
	if err := json.Unmarshal(obj["counterfactualSavings"], &cf); err != nil {
		return a, fmt.Errorf("field \"counterfactualSavings\" is not an object: %w", err)
	}
	if err := requireFields(cf, counterfactualFields, "counterfactualSavings."); err != nil {
		return a, err
	}

	if err := json.Unmarshal(item, &a); err != nil {
		return a, fmt.Errorf("decode: %w", err)
	}
	if strings.TrimSpace(a.Name) == "" {
		return a, fmt.Errorf("required field \"name\" is empty")
	}
	if err := a.Validate(); err != nil {
		return a, err
	}

	return a, nil
}

// requireFields checks that every key is present and not null.
func requireFields(obj map[string]json.RawMessage, keys []string, prefix string) error {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			return fmt.Errorf("missing required field %q", prefix+k)
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("required field %q is null", prefix+k)
		}
	}
	return nil
}

// cleanModelJSON strips Markdown fences and surrounding chatter in case the model
// ignored the structured-output contract. Text that is already valid JSON is returned as is.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || json.Valid([]byte(s)) {
		return s
	}

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = strings.TrimSpace(s[:idx])
		}
		if json.Valid([]byte(s)) {
			return s
		}
	}

	// Keep only the outermost array if there is junk around it.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
