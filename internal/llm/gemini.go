package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raine/telegram-shafa-bot/internal/extract"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const geminiLiteModel = "gemini-2.5-flash-lite"

// Gemini pricing (per million tokens)
const (
	geminiLiteInputPricePerMillion  = 0.075
	geminiLiteOutputPricePerMillion = 0.30
)

const listingPrompt = `You read sneaker sale posts from Ukrainian Telegram channels and extract the listing fields.

Post:
"""
%s
"""

Return a JSON object with these string fields:
- name: product name with brand and model, without price, sizes or contacts
- brand: brand name as written on the product, empty if unknown
- size: the first size offered (e.g. "40" or "40.5"), empty if none
- color: main colors in English, lowercase, space separated (e.g. "black white"), empty if unknown
- price: selling price as digits only, empty if none

Use an empty string for anything the post does not state. Do not guess.`

// GeminiRefiner asks Gemini for the fields of a post.
type GeminiRefiner struct {
	client *genai.Client
	model  string
}

// NewGeminiRefiner creates a refiner authenticated with apiKey.
func NewGeminiRefiner(ctx context.Context, apiKey string) (*GeminiRefiner, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiRefiner{client: client, model: geminiLiteModel}, nil
}

var suggestionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":  {Type: genai.TypeString},
		"brand": {Type: genai.TypeString},
		"size":  {Type: genai.TypeString},
		"color": {Type: genai.TypeString},
		"price": {Type: genai.TypeString},
	},
	Required:         []string{"name", "brand", "size", "color", "price"},
	PropertyOrdering: []string{"name", "brand", "size", "color", "price"},
}

// Suggest implements Suggester.
func (g *GeminiRefiner) Suggest(ctx context.Context, text string) (*Suggestion, error) {
	prompt := fmt.Sprintf(listingPrompt, strings.TrimSpace(text))
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   suggestionSchema,
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}, config)
	if err != nil {
		return nil, fmt.Errorf("gemini listing extraction failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	suggestion, err := parseSuggestion(result.Text())
	if err != nil {
		return nil, err
	}

	if result.UsageMetadata != nil {
		usage := Usage{
			InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
		}
		usage.CostUSD = calculateGeminiCost(usage.InputTokens, usage.OutputTokens, geminiLiteInputPricePerMillion, geminiLiteOutputPricePerMillion)
		log.Info().
			Str("model", g.model).
			Int64("inputTokens", usage.InputTokens).
			Int64("outputTokens", usage.OutputTokens).
			Float64("costUSD", usage.CostUSD).
			Msg("listing extraction llm call")
	}

	return suggestion, nil
}

// Refine implements Refiner.
func (g *GeminiRefiner) Refine(ctx context.Context, text string, listing extract.ExtractedListing) (extract.ExtractedListing, error) {
	return NewRefiner(g).Refine(ctx, text, listing)
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}

// extractJSONObject extracts a JSON object from text that may be wrapped in
// a markdown code block.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

func parseSuggestion(text string) (*Suggestion, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	var s Suggestion
	if err := json.Unmarshal([]byte(jsonStr), &s); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, jsonStr)
	}
	return &s, nil
}
