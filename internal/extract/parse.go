package extract

import (
	"encoding/json"
	"strings"

	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

func CleanJson(input string) string {
	clean := strings.TrimSpace(input)

	// Remove opening ```json or ``` with optional newline
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")

	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}

type payload struct {
	Fields    map[string]json.RawMessage `json:"fields"`
	Sentences map[string]string          `json:"sentences"`
	Ambiguous []string                   `json:"ambiguous"`
}

// ParseResponse reads a model answer. JSON answers are decoded against the schema;
// anything else falls back to ParseText.
func ParseResponse(s *schema.Schema, text string) Result {
	cleaned := CleanJson(text)
	if res, ok := decodeJSON(s, cleaned); ok {
		return res
	}
	// Models sometimes wrap the object in prose.
	if i, j := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); i >= 0 && j > i {
		if res, ok := decodeJSON(s, cleaned[i:j+1]); ok {
			return res
		}
	}
	return Result{Fields: ParseText(s, text)}
}

func decodeJSON(s *schema.Schema, text string) (Result, bool) {
	var p payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return Result{}, false
	}
	if p.Fields == nil && p.Sentences == nil && p.Ambiguous == nil {
		return Result{}, false
	}

	res := Result{
		Fields:     make(map[string]schema.Value, len(p.Fields)),
		Sentences:  p.Sentences,
		Ambiguous:  p.Ambiguous,
		Structured: true,
	}
	for name, raw := range p.Fields {
		f, ok := s.Field(name)
		if !ok {
			continue
		}
		v, err := f.Decode(raw)
		if err != nil {
			res.Ambiguous = append(res.Ambiguous, name)
			continue
		}
		if !v.IsZero() {
			res.Fields[name] = v
		}
	}
	return res, true
}

var (
	separators = []string{"→", "->", "：", ":", "="}
	bullets    = "┌└├│-*•✅❌ \t"
)

// ParseText recovers "label: value" and "label → value" pairs from plain text.
func ParseText(s *schema.Schema, text string) map[string]schema.Value {
	out := make(map[string]schema.Value)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), bullets)
		key, value, ok := splitPair(line)
		if !ok {
			continue
		}
		f, ok := s.Lookup(key)
		if !ok {
			continue
		}
		if _, dup := out[f.Name]; dup {
			continue
		}
		out[f.Name] = f.Coerce(schema.Text(value))
	}
	return out
}

func splitPair(line string) (string, string, bool) {
	best := -1
	var sep string
	for _, s := range separators {
		if i := strings.Index(line, s); i > 0 && (best < 0 || i < best) {
			best, sep = i, s
		}
	}
	if best < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:best])
	value := strings.TrimSpace(line[best+len(sep):])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}
