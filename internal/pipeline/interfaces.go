package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/smartpause/internal/runs"
	"google.golang.org/genai"
)

// AnalysisModel is the structured-text generation capability.
// This interface enables mocking of the model in tests.
type AnalysisModel interface {
	// GenerateAnalyses sends the prompt with the response schema and returns the raw JSON text.
	GenerateAnalyses(ctx context.Context, prompt string, schema *genai.Schema) (string, error)

	// Name returns the model identifier, recorded with each run.
	Name() string
}

// GeminiAnalysisModel is the concrete AnalysisModel backed by the Gemini API.
type GeminiAnalysisModel struct {
	client *genai.Client
	model  string
}

// NewGeminiAnalysisModel creates a GeminiAnalysisModel. An empty model uses DefaultAnalysisModel.
func NewGeminiAnalysisModel(client *genai.Client, model string) *GeminiAnalysisModel {
	if model == "" {
		model = DefaultAnalysisModel
	}
	return &GeminiAnalysisModel{client: client, model: model}
}

// Name implements AnalysisModel.
func (m *GeminiAnalysisModel) Name() string {
	return m.model
}

// GenerateAnalyses requests constrained JSON output; free-form text is never requested.
func (m *GeminiAnalysisModel) GenerateAnalyses(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("GenerateAnalyses: %w: %w", ErrTransport, err)
	}

	return resp.Text(), nil
}

// Recorder is the subset of runs.Recorder the Runner needs.
type Recorder interface {
	StartRun(ctx context.Context, run *runs.Run) error
	MarkRunFailed(ctx context.Context, runID, errorKind string, runErr error)
	MarkRunSucceeded(ctx context.Context, runID string, analysisCount int) error
	InsertModelOutput(ctx context.Context, out *runs.ModelOutput) error
}

// NewGenAIClient creates a Gemini API client. An empty apiKey lets the SDK fall back to
// GOOGLE_API_KEY / GEMINI_API_KEY from the environment; an empty baseURL uses the public endpoint.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGenAIClient: create genai client: %w", err)
	}
	return client, nil
}
