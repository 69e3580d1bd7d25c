package pipeline

// Default values for analysis generation.
// Both models can be overridden through config.
const (
	// DefaultAnalysisModel is the Gemini model used for structured analyses.
	DefaultAnalysisModel = "gemini-3-flash-preview"

	// DefaultImageModel is the Gemini model used for brand and hero images.
	DefaultImageModel = "gemini-2.5-flash-image"

	// AnalysisTheme is the framing passed to the model with every run.
	AnalysisTheme = "Quantum Financial Vibe"
)
