package dialogue

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/muhammadolammi/cvbuilder/internal/observability"
)

type session struct {
	mu    sync.Mutex
	state *SessionState
}

// Service keeps sessions in memory. Turns of one session run one at a time;
// different sessions proceed in parallel.
type Service struct {
	orch *Orchestrator

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewService(orch *Orchestrator) *Service {
	return &Service{
		orch:     orch,
		sessions: make(map[string]*session),
	}
}

// StartSession creates a session and returns its id with the opening message.
func (s *Service) StartSession(ctx context.Context, userID string) (string, Reply, error) {
	if err := ctx.Err(); err != nil {
		return "", Reply{}, err
	}
	id := uuid.NewString()
	state, rep := s.orch.Start(id, userID)

	s.mu.Lock()
	s.sessions[id] = &session{state: state}
	s.mu.Unlock()

	observability.LoggerFromContext(observability.WithSessionID(ctx, id)).Info("session started", "user_id", userID)
	return id, rep, nil
}

// SendMessage runs one turn. ErrExtractionUnavailable leaves the session untouched.
func (s *Service) SendMessage(ctx context.Context, sessionID, text string) (Reply, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return Reply{}, err
	}
	ctx = observability.WithSessionID(ctx, sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == nil {
		return Reply{}, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	wasComplete := sess.state.Complete()
	rep, err := s.orch.Turn(ctx, sess.state, text)
	if err != nil {
		return Reply{}, err
	}
	if rep.Complete && !wasComplete {
		observability.LoggerFromContext(ctx).Info("session complete", "completeness", rep.Summary.Completeness)
	}
	return rep, nil
}

// GetSession returns a snapshot of the session.
func (s *Service) GetSession(sessionID string) (*SessionState, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return sess.state.Clone(), nil
}

// Abandon drops a session. A turn already running finishes first.
func (s *Service) Abandon(sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	sess.mu.Lock()
	sess.state = nil
	sess.mu.Unlock()
	observability.WithFields("session_id", sessionID).Info("session abandoned")
	return nil
}

func (s *Service) lookup(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return sess, nil
}
