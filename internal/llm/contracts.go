package llm

import "context"

// SemanticExtractor turns contract text into the structured extraction
// document. The pipeline depends on this interface only; the openai
// subpackage provides the chat-completions implementation.
type SemanticExtractor interface {
	Extract(ctx context.Context, contractText string) (map[string]any, error)
}
