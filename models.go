package main

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/streadway/amqp"

	"github.com/muhammadolammi/cvbuilder/internal/config"
	"github.com/muhammadolammi/cvbuilder/internal/database"
	"github.com/muhammadolammi/cvbuilder/internal/dialogue"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

type WorkerConfig struct {
	DB         *database.Queries
	Sessions   *dialogue.Service
	R2         *config.R2Config
	AwsConfig  *aws.Config
	RabbitConn *amqp.Connection
}

// TurnMessage is one user message taken from the turn queue. An empty SessionID
// starts a new session.
type TurnMessage struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	// ResumeKey optionally names an R2 object whose text seeds the first turn.
	ResumeKey string `json:"resume_key,omitempty"`
}

// SessionUpdate is published after every processed turn.
type SessionUpdate struct {
	SessionID string         `json:"session_id"`
	Status    string         `json:"status"`
	Stage     schema.StageID `json:"stage,omitempty"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	Complete  bool           `json:"complete"`
	Timestamp time.Time      `json:"timestamp"`
}

const (
	statusStarted    = "started"
	statusProcessing = "processing"
	statusAwaiting   = "awaiting_input"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

func updateFromReply(sessionID, status string, rep dialogue.Reply) SessionUpdate {
	return SessionUpdate{
		SessionID: sessionID,
		Status:    status,
		Stage:     rep.Stage,
		Progress:  rep.Progress,
		Message:   rep.Message,
		Complete:  rep.Complete,
		Timestamp: time.Now(),
	}
}
