package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"kvitt/internal/services"
)

const extractionPrompt = `Analyze this receipt and answer with a single JSON object:
{
  "description": "what was purchased, one short sentence",
  "vendor": "the merchant name",
  "amount": 0.0,
  "amountInSettlementCurrency": null,
  "date": "YYYY-MM-DD",
  "currency": "ISO 4217 code printed on the receipt",
  "exchangeRate": 0.0,
  "confidence": 0.0
}
"amount" is the total in the receipt's own currency. Set
"amountInSettlementCurrency" only when an NOK figure is printed directly
(e.g. a card charge line); otherwise leave it null. Set "exchangeRate" only
when the receipt states one. "confidence" is your trust in the extraction
between 0 and 1. Answer with JSON only, no prose.`

// Gemini extracts receipt fields by sending the document to Google Gemini.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini-backed scanner.
func NewGemini(apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: client.GenerativeModel(modelName)}, nil
}

// Extract reads the local document and asks the model for its fields.
func (g *Gemini) Extract(ctx context.Context, ref FileRef) (*Result, error) {
	if ref.LocalPath == "" {
		return nil, services.Wrap(services.ErrValidation, "ocr", "extract", "gemini backend needs the local document path", nil)
	}
	data, err := os.ReadFile(ref.LocalPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "ocr", "extract", "read document", err)
	}

	parts := []genai.Part{
		genai.Blob{MIMEType: mimeOrDefault(ref.MimeType), Data: data},
		genai.Text(extractionPrompt),
	}
	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "ocr", "extract", "generate content", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, services.Wrap(services.ErrExternalService, "ocr", "extract", "empty model response", nil)
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	result, err := parseResultJSON(builder.String())
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "ocr", "extract", "parse model response", err)
	}
	return result, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func mimeOrDefault(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
