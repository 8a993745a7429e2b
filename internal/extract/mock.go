package extract

import (
	"context"
	"strings"

	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

// Mock is an offline extractor for local runs. It reads "label: value" lines from
// the latest user turn and otherwise treats the whole answer as the value of the
// first requested field.
type Mock struct {
	schema *schema.Schema
}

func NewMock(s *schema.Schema) *Mock {
	return &Mock{schema: s}
}

func (m *Mock) Extract(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := Result{Fields: map[string]schema.Value{}}
	turn, ok := req.History.LastUser()
	if !ok {
		return res, nil
	}

	labeled := ParseText(m.schema, turn.Content)
	for name, v := range labeled {
		f, _ := m.schema.Field(name)
		if f.Stage == req.Stage {
			res.Fields[name] = v
		}
	}
	if len(labeled) == 0 && len(req.Targets) > 0 {
		text := strings.TrimSpace(turn.Content)
		if text != "" {
			res.Fields[req.Targets[0].Name] = req.Targets[0].Coerce(schema.Text(text))
		}
	}
	return res, nil
}
