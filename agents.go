package main

import (
	"context"
	"fmt"

	"github.com/muhammadolammi/cvbuilder/internal/config"
	"github.com/muhammadolammi/cvbuilder/internal/extract"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

// newExtractor builds the extraction backend named by CV_EXTRACTOR.
func newExtractor(ctx context.Context, cfg *config.Config, s *schema.Schema) (extract.Extractor, error) {
	switch cfg.Extractor {
	case config.BackendMock:
		return extract.NewMock(s), nil
	case config.BackendGenAI:
		ex, err := extract.NewGenAI(ctx, extract.GenAIConfig{
			APIKey:    cfg.GoogleAPIKey,
			Project:   cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			ModelName: cfg.ModelName,
		}, s)
		if err != nil {
			return nil, fmt.Errorf("failed to create genai extractor: %w", err)
		}
		return ex, nil
	default:
		ex, err := extract.NewADK(ctx, cfg.GoogleAPIKey, cfg.ModelName, s)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent: %w", err)
		}
		return ex, nil
	}
}
