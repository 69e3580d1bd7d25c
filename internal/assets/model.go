package assets

import (
	"context"
	"fmt"

	"github.com/dvloznov/smartpause/internal/pipeline"
	"google.golang.org/genai"
)

// DefaultImageModel is used when no image model is configured.
const DefaultImageModel = pipeline.DefaultImageModel

// Image is a generated binary payload.
type Image struct {
	MIMEType string
	Data     []byte
}

// ImageModel is the image generation capability.
type ImageModel interface {
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
}

// GeminiImageModel is the concrete ImageModel backed by the Gemini API.
type GeminiImageModel struct {
	client *genai.Client
	model  string
}

// NewGeminiImageModel creates a GeminiImageModel. An empty model uses DefaultImageModel.
func NewGeminiImageModel(client *genai.Client, model string) *GeminiImageModel {
	if model == "" {
		model = DefaultImageModel
	}
	return &GeminiImageModel{client: client, model: model}
}

// GenerateImage returns the first inline-data part of the response.
func (m *GeminiImageModel) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityText), string(genai.ModalityImage)},
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("GenerateImage: %w: %w", pipeline.ErrTransport, err)
	}

	img := firstInlineImage(resp)
	if img == nil {
		return nil, fmt.Errorf("GenerateImage: %w", pipeline.ErrAssetDecode)
	}
	return img, nil
}

func firstInlineImage(resp *genai.GenerateContentResponse) *Image {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return &Image{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}
		}
	}
	return nil
}
