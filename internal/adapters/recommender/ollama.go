package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "llama3"
)

// OllamaGenerator calls a local Ollama server with the recommendation schema as the output format.
type OllamaGenerator struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaGenerator(host, model string, client *http.Client) *OllamaGenerator {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaGenerator{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: client,
	}
}

type ollamaRequest struct {
	Model  string          `json:"model"`
	Prompt string          `json:"prompt"`
	Stream bool            `json:"stream"`
	Format json.RawMessage `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// ollamaFormat mirrors the Gemini response schema as plain JSON Schema.
var ollamaFormat = json.RawMessage(`{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "title": {"type": "string"},
      "author": {"type": "string"},
      "reason": {"type": "string"}
    },
    "required": ["title", "author", "reason"],
    "additionalProperties": false
  }
}`)

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	log.Debug().Str("component", "ollama").Str("model", g.model).Msg("sending request")

	reqBody, err := json.Marshal(ollamaRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
		Format: ollamaFormat,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama returned error status %d: %s", resp.StatusCode, string(body))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return out.Response, nil
}

func (g *OllamaGenerator) Name() string {
	return fmt.Sprintf("Ollama (%s) [Local]", g.model)
}
