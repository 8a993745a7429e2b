package extract

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

// GenAIConfig selects the Gemini API (APIKey) or Vertex AI (Project and Location).
type GenAIConfig struct {
	APIKey    string
	Project   string
	Location  string
	ModelName string
}

// GenAI calls GenerateContent directly and asks for a JSON response.
type GenAI struct {
	schema    *schema.Schema
	client    *genai.Client
	modelName string
}

func NewGenAI(ctx context.Context, cfg GenAIConfig, s *schema.Schema) (*GenAI, error) {
	cc := &genai.ClientConfig{APIKey: cfg.APIKey}
	if cfg.APIKey == "" {
		cc = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GenAI{schema: s, client: client, modelName: cfg.ModelName}, nil
}

func (g *GenAI) Extract(ctx context.Context, req Request) (Result, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(BuildMessage(req), genai.RoleUser),
	}

	temp := float32(0.2)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(req.Instruction), genai.RoleUser),
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("%w: generate content: %v", ErrUnavailable, err)
	}
	text := res.Text()
	if text == "" {
		return Result{}, fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return ParseResponse(g.schema, text), nil
}
