package llm

import (
	"encoding/json"
	"strings"

	"github.com/nvaldebenito/contratos-pipeline/internal/common"
)

// SanitizeModelOutput strips the decoration models wrap around JSON despite
// instructions: markdown fences, language tags, leading prose up to the first
// brace and trailing prose after the last.
func SanitizeModelOutput(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start > 0 {
		s = s[start:]
	}
	if end := strings.LastIndexAny(s, "}]"); end >= 0 && end < len(s)-1 {
		s = s[:end+1]
	}
	return s
}

// DecodeDocument sanitizes, parses and validates one model response. A
// top-level single-element array is unwrapped to its object (a recurring
// model quirk). Failures come back as *common.SemanticExtractionError.
func DecodeDocument(raw string) (map[string]any, error) {
	cleaned := SanitizeModelOutput(raw)
	if cleaned == "" {
		return nil, &common.SemanticExtractionError{Reason: "empty model output"}
	}

	var v any
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return nil, &common.SemanticExtractionError{Reason: "model output is not valid JSON", Cause: err}
	}

	if list, ok := v.([]any); ok {
		if len(list) != 1 {
			return nil, &common.SemanticExtractionError{Reason: "model output is a multi-element array"}
		}
		v = list[0]
	}

	doc, ok := v.(map[string]any)
	if !ok {
		return nil, &common.SemanticExtractionError{Reason: "model output is not a JSON object"}
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, &common.SemanticExtractionError{Reason: "re-encoding model output", Cause: err}
	}
	if err := ValidateJSONAgainstSchema(BuildContractJSONSchema(), encoded); err != nil {
		return nil, &common.SemanticExtractionError{Reason: "model output missing required sections", Cause: err}
	}
	return doc, nil
}
