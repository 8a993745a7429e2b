// Package extracttest provides a scripted extractor for tests.
package extracttest

import (
	"context"
	"errors"
	"sync"

	"github.com/muhammadolammi/cvbuilder/internal/extract"
)

// ErrExhausted is returned once every scripted step has been consumed.
var ErrExhausted = errors.New("extracttest: script exhausted")

type step struct {
	result extract.Result
	err    error
}

// Scripted returns queued results in order and records every request it receives.
type Scripted struct {
	mu    sync.Mutex
	steps []step
	calls []extract.Request
}

func New() *Scripted {
	return &Scripted{}
}

// Then queues a result.
func (s *Scripted) Then(r extract.Result) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step{result: r})
	return s
}

// Fail queues an error.
func (s *Scripted) Fail(err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step{err: err})
	return s
}

func (s *Scripted) Extract(ctx context.Context, req extract.Request) (extract.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if err := ctx.Err(); err != nil {
		return extract.Result{}, err
	}
	if len(s.steps) == 0 {
		return extract.Result{}, ErrExhausted
	}
	next := s.steps[0]
	s.steps = s.steps[1:]
	return next.result, next.err
}

// Calls returns the requests received so far.
func (s *Scripted) Calls() []extract.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]extract.Request, len(s.calls))
	copy(out, s.calls)
	return out
}
