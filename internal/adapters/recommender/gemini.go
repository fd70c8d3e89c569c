package recommender

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-2.5-flash"

var ErrMissingAPIKey = errors.New("gemini api key must not be empty")

// GeminiGenerator asks a Gemini model for a JSON answer constrained by the recommendation schema.
type GeminiGenerator struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = recommendationSchema()

	return &GeminiGenerator{client: client, model: model, modelName: modelName}, nil
}

func recommendationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":  {Type: genai.TypeString, Description: "Book title"},
				"author": {Type: genai.TypeString, Description: "Book author"},
				"reason": {Type: genai.TypeString, Description: "One sentence on why the book fits"},
			},
			Required: []string{"title", "author", "reason"},
		},
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	log.Debug().Str("component", "gemini").Str("model", g.modelName).Msg("sending request")

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	return extractText(resp)
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from gemini")
	}
	return sb.String(), nil
}

func (g *GeminiGenerator) Name() string {
	return fmt.Sprintf("Gemini (%s)", g.modelName)
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
