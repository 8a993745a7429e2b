package extract

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

const appName = "cv builder"

// ADK extracts fields through one agent per stage. Every call runs in a fresh
// agent session that is deleted afterwards, so the agent carries no memory
// between turns; the full history is sent each time.
type ADK struct {
	schema   *schema.Schema
	sessions session.Service
	runners  map[schema.StageID]*runner.Runner
}

func NewADK(ctx context.Context, apiKey, modelName string, s *schema.Schema) (*ADK, error) {
	model, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %v", err)
	}

	a := &ADK{
		schema:   s,
		sessions: session.InMemoryService(),
		runners:  make(map[schema.StageID]*runner.Runner, len(s.Stages)),
	}
	for _, st := range s.Stages {
		stageAgent, err := llmagent.New(llmagent.Config{
			Name:        string(st.ID) + "_collector",
			Model:       model,
			Description: "Collect " + st.Title,
			Instruction: SystemPrompt(st.Instruction),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create agent: %v", err)
		}
		r, err := runner.New(runner.Config{
			AppName:        appName,
			Agent:          stageAgent,
			SessionService: a.sessions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create runner: %v", err)
		}
		a.runners[st.ID] = r
	}
	return a, nil
}

func (a *ADK) Extract(ctx context.Context, req Request) (Result, error) {
	r, ok := a.runners[req.Stage]
	if !ok {
		return Result{}, fmt.Errorf("no agent for stage %q", req.Stage)
	}

	created, err := a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    "cv-user",
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: create agent session: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = a.sessions.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   created.Session.AppName(),
			UserID:    created.Session.UserID(),
			SessionID: created.Session.ID(),
		})
	}()

	stream := r.Run(ctx, created.Session.UserID(), created.Session.ID(), &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: BuildMessage(req)},
		},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return Result{}, fmt.Errorf("%w: agent stream: %v", ErrUnavailable, err)
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}
	if output == "" {
		return Result{}, fmt.Errorf("%w: empty agent response", ErrUnavailable)
	}
	return ParseResponse(a.schema, output), nil
}
