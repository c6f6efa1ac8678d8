package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	FieldOptimizedResume = "optimized_resume"
	FieldChangelog       = "changelog"
	FieldSuggestions     = "suggestions"

	FallbackChangelog   = "Could not parse changelog from model output."
	FallbackSuggestions = "Could not parse suggestions from model output."
)

// jsonSpan is greedy: it runs from the first "{" to the last "}" and is not
// aware of nesting or braces inside string literals.
var jsonSpan = regexp.MustCompile(`\{[\s\S]*\}`)

const outputSchemaJSON = `{
  "type": "object",
  "required": ["optimized_resume", "changelog", "suggestions"],
  "properties": {
    "optimized_resume": {"type": "string"},
    "changelog": {"type": "string"},
    "suggestions": {"type": "string"}
  }
}`

var outputSchema = mustSchema(outputSchemaJSON)

// Parsed is the Response Parser result. Fields is either the decoded object
// as-is or the fallback mapping; OK and Reason say which one it is.
type Parsed struct {
	Fields map[string]any
	OK     bool
	Reason string
	// SchemaValid is diagnostic only and never alters Fields.
	SchemaValid bool
}

// OptimizationResult holds the three display fields.
type OptimizationResult struct {
	OptimizedResume string `json:"optimizedResume"`
	Changelog       string `json:"changelog"`
	Suggestions     string `json:"suggestions"`
}

// ParseOutput extracts the JSON object embedded in raw model output. On any
// failure the whole raw text becomes optimized_resume.
func ParseOutput(raw string) Parsed {
	span := jsonSpan.FindString(raw)
	if span == "" {
		return fallback(raw, "no JSON object found in model output")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(span), &fields); err != nil {
		return fallback(raw, fmt.Sprintf("invalid JSON in model output: %v", err))
	}
	if fields == nil {
		return fallback(raw, "model output JSON is null")
	}

	return Parsed{
		Fields:      fields,
		OK:          true,
		SchemaValid: matchesSchema(fields),
	}
}

func fallback(raw, reason string) Parsed {
	return Parsed{
		Fields: map[string]any{
			FieldOptimizedResume: raw,
			FieldChangelog:       FallbackChangelog,
			FieldSuggestions:     FallbackSuggestions,
		},
		Reason: reason,
	}
}

// Result reads the three display fields, defaulting missing keys to "".
func (p Parsed) Result() OptimizationResult {
	return OptimizationResult{
		OptimizedResume: fieldText(p.Fields[FieldOptimizedResume]),
		Changelog:       fieldText(p.Fields[FieldChangelog]),
		Suggestions:     fieldText(p.Fields[FieldSuggestions]),
	}
}

// fieldText keeps strings verbatim, renders string lists one "- item" per
// line and re-encodes anything else as JSON.
func fieldText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		lines := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return encodeJSON(v)
			}
			lines = append(lines, "- "+s)
		}
		return strings.Join(lines, "\n")
	default:
		return encodeJSON(v)
	}
}

func encodeJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func matchesSchema(fields map[string]any) bool {
	result, err := outputSchema.Validate(gojsonschema.NewGoLoader(fields))
	if err != nil {
		return false
	}
	return result.Valid()
}

func mustSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("compile model output schema: %v", err))
	}
	return schema
}
