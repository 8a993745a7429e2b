// Package extract is the boundary to the language model that turns conversation
// history into field values.
package extract

import (
	"context"
	"errors"

	"github.com/muhammadolammi/cvbuilder/internal/chat"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

// ErrUnavailable is returned when the model could not be reached or gave no answer.
var ErrUnavailable = errors.New("extraction service unavailable")

// Request is one extraction call for the active stage.
type Request struct {
	Stage       schema.StageID
	Instruction string
	History     chat.History
	Targets     []schema.Field
}

// Result is a best-effort mapping of field name to value. Fields the model
// could not pin down are listed in Ambiguous; anything absent is still missing.
type Result struct {
	Fields    map[string]schema.Value
	Sentences map[string]string
	Ambiguous []string

	// Structured is false when the values were recovered heuristically from plain text.
	Structured bool
}

// Extractor is a synchronous request/response call with no partial results.
type Extractor interface {
	Extract(ctx context.Context, req Request) (Result, error)
}
