package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"

	"github.com/muhammadolammi/cvbuilder/internal/database"
	"github.com/muhammadolammi/cvbuilder/internal/dialogue"
	"github.com/muhammadolammi/cvbuilder/internal/observability"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

const turnQueue = "cv_turns"

var workerFlags struct {
	workers int
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process chat turns from RabbitMQ and store finished records in Postgres",
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerFlags.workers, "workers", 3, "Number of consumer goroutines")
}

// retry retries a function up to `attempts` times with linear backoff. It gives
// up early when ctx is done.
func retry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		wait := time.Duration(500*(i+1)) * time.Millisecond
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("after %d attempts: %w", i+1, errors.Join(lastErr, ctx.Err()))
		case <-time.After(wait):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, svc, err := setup(ctx)
	if err != nil {
		return err
	}
	if err := cfg.RequireWorker(); err != nil {
		return err
	}
	if workerFlags.workers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}

	db, err := sql.Open("postgres", cfg.DBURL)
	if err != nil {
		return fmt.Errorf("error opening db. err: %w", err)
	}
	defer db.Close()

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("error connecting to RabbitMQ. err: %w", err)
	}
	defer conn.Close()

	workerConfig := WorkerConfig{
		DB:         database.New(db),
		Sessions:   svc,
		RabbitConn: conn,
	}
	if cfg.R2.Enabled() {
		awsConfig, err := newAwsConfig(ctx, cfg.R2)
		if err != nil {
			return fmt.Errorf("error creating aws config: %w", err)
		}
		workerConfig.R2 = &cfg.R2
		workerConfig.AwsConfig = &awsConfig
	}

	observability.Logger().Info("starting consumer pool", "workers", workerFlags.workers, "queue", turnQueue)
	workerConfig.StartConsumerWorkerPool(ctx, workerFlags.workers)
	return nil
}

// handleTurn runs one queued message through the session service and reports the
// result on the session_updates exchange.
func (workerConfig *WorkerConfig) handleTurn(ctx context.Context, body []byte) error {
	turn := TurnMessage{}
	if err := json.Unmarshal(body, &turn); err != nil {
		return fmt.Errorf("error unmarshalling message body: %w", err)
	}

	text := strings.TrimSpace(turn.Text)
	if turn.SessionID == "" {
		id, rep, err := workerConfig.Sessions.StartSession(ctx, turn.UserID)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		turn.SessionID = id
		workerConfig.saveSession(ctx, turn, statusStarted, rep)
		workerConfig.publish(updateFromReply(id, statusStarted, rep))

		if turn.ResumeKey != "" {
			resume, err := workerConfig.importResume(ctx, turn.ResumeKey)
			if err != nil {
				observability.WithFields("session_id", id, "object_key", turn.ResumeKey).Warn("resume import failed", "error", err)
			} else if resume != "" {
				text = strings.TrimSpace(importMessage(resume) + "\n" + text)
			}
		}
		if text == "" {
			return nil
		}
	}
	ctx = observability.WithSessionID(ctx, turn.SessionID)
	logger := observability.LoggerFromContext(ctx)

	workerConfig.publish(SessionUpdate{
		SessionID: turn.SessionID,
		Status:    statusProcessing,
		Message:   "turn received",
		Timestamp: time.Now(),
	})

	rep, err := workerConfig.Sessions.SendMessage(ctx, turn.SessionID, text)
	switch {
	case errors.Is(err, dialogue.ErrSessionNotFound):
		workerConfig.publish(workerConfig.staleSession(ctx, turn.SessionID))
		return err
	case err != nil:
		message := "turn failed"
		if errors.Is(err, dialogue.ErrExtractionUnavailable) {
			// Nothing was committed; the session can take the same message again.
			message = "extraction unavailable, please resend the message"
		} else {
			workerConfig.setStatus(ctx, turn.SessionID, statusFailed)
		}
		workerConfig.publish(SessionUpdate{
			SessionID: turn.SessionID,
			Status:    statusFailed,
			Message:   message,
			Timestamp: time.Now(),
		})
		return err
	}

	status := statusAwaiting
	if rep.Complete {
		status = statusCompleted
		if err := workerConfig.saveRecord(ctx, turn.SessionID, rep); err != nil {
			logger.Error("failed to save resume record", "error", err)
		}
	}
	workerConfig.saveSession(ctx, turn, status, rep)
	workerConfig.publish(updateFromReply(turn.SessionID, status, rep))
	return nil
}

func (workerConfig *WorkerConfig) importResume(ctx context.Context, key string) (string, error) {
	if workerConfig.R2 == nil || workerConfig.AwsConfig == nil {
		return "", fmt.Errorf("r2 is not configured")
	}
	client := newR2Client(*workerConfig.AwsConfig, workerConfig.R2.AccountID)

	// ✅ Retry downloading file (network failures are transient)
	fileBytes, err := retry(ctx, 3, func() ([]byte, error) {
		return DownloadFromR2(ctx, client, workerConfig.R2.Bucket, key)
	})
	if err != nil {
		return "", err
	}
	text, err := ExtractResumeText(mimeFromName(key), fileBytes)
	if err != nil {
		return "", fmt.Errorf("text extraction error: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (workerConfig *WorkerConfig) saveSession(ctx context.Context, turn TurnMessage, status string, rep dialogue.Reply) {
	id, err := uuid.Parse(turn.SessionID)
	if err != nil {
		return
	}
	err = workerConfig.DB.CreateOrUpdateSession(ctx, database.CreateOrUpdateSessionParams{
		ID:     id,
		UserID: turn.UserID,
		Status: status,
		Stage:  string(rep.Stage),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("failed to update session status", "status", status, "error", err)
	}
}

func (workerConfig *WorkerConfig) setStatus(ctx context.Context, sessionID, status string) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return
	}
	existing, err := workerConfig.DB.GetSession(ctx, id)
	if err != nil {
		return
	}
	err = workerConfig.DB.UpdateSessionStatus(ctx, database.UpdateSessionStatusParams{
		Status: status,
		Stage:  existing.Stage,
		ID:     id,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("failed to update session status", "status", status, "error", err)
	}
}

// staleSession answers a turn for a session this process does not hold, either
// unknown or lost on restart. Finished sessions report their stored record.
func (workerConfig *WorkerConfig) staleSession(ctx context.Context, sessionID string) SessionUpdate {
	update := SessionUpdate{
		SessionID: sessionID,
		Status:    statusFailed,
		Message:   "unknown session, start a new one",
		Timestamp: time.Now(),
	}
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return update
	}
	existing, err := workerConfig.DB.GetSession(ctx, id)
	if err != nil {
		return update
	}
	update.Stage = schema.StageID(existing.Stage)
	if existing.Status != statusCompleted {
		update.Message = "session expired, start a new one"
		return update
	}
	rec, err := workerConfig.DB.GetResumeRecordBySession(ctx, id)
	if err != nil {
		return update
	}
	update.Status = statusCompleted
	update.Complete = true
	update.Progress = 100
	update.Message = fmt.Sprintf("session already completed, record saved with completeness %d%%", rec.Completeness)
	return update
}

// saveRecord stores the final record. Later corrections overwrite it.
func (workerConfig *WorkerConfig) saveRecord(ctx context.Context, sessionID string, rep dialogue.Reply) error {
	if rep.Summary == nil {
		return fmt.Errorf("session %s has no summary", sessionID)
	}
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	fieldsJSON, err := json.Marshal(rep.Summary.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal record fields: %w", err)
	}

	_, err = retry(ctx, 3, func() (any, error) {
		return nil, workerConfig.DB.CreateOrUpdateResumeRecord(ctx, database.CreateOrUpdateResumeRecordParams{
			SessionID:    id,
			Fields:       fieldsJSON,
			Completeness: int32(rep.Summary.Completeness),
			EmploymentStatus: sql.NullString{
				String: rep.Summary.Employment,
				Valid:  rep.Summary.Employment != "",
			},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save resume record after retries: %w", err)
	}
	return nil
}

func (workerConfig *WorkerConfig) publish(update SessionUpdate) {
	if err := publishSessionUpdate(workerConfig.RabbitConn, update.SessionID, update); err != nil {
		observability.WithFields("session_id", update.SessionID).Warn("failed to publish update", "error", err)
	}
}

func worker(ctx context.Context, id int, workerConfig *WorkerConfig, wg *sync.WaitGroup) {
	defer wg.Done()
	logger := observability.WithFields("worker", id+1)

	ch, err := workerConfig.RabbitConn.Channel()
	if err != nil {
		logger.Error("error connecting to rabbitmq channel", "error", err)
		return
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(sessionUpdatesExchange, "topic", true, false, false, false, nil); err != nil {
		logger.Error("failed to declare exchange", "exchange", sessionUpdatesExchange, "error", err)
		return
	}
	_, err = ch.QueueDeclare(
		turnQueue, // queue name
		true,      // durable (survives broker restarts)
		false,     // auto-delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		logger.Error("failed to declare queue", "error", err)
		return
	}

	msgs, err := ch.Consume(
		turnQueue, // queue name
		"",        // consumer tag
		true,      // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		logger.Error("error consuming rabbitmq message", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := workerConfig.handleTurn(ctx, msg.Body); err != nil {
				logger.Warn("turn not processed", "error", err)
			}
		}
	}
}

func (workerConfig *WorkerConfig) StartConsumerWorkerPool(ctx context.Context, numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := range numWorkers {
		observability.Logger().Info("worker started", "worker", i+1)
		go worker(ctx, i, workerConfig, &wg)
	}
	wg.Wait() // block until all workers finish
}
