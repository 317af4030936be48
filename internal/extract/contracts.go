package extract

import (
	"context"
	"strings"
	"time"
)

// TextExtractor is stage 1 of the pipeline: PDF bytes to plain text.
type TextExtractor interface {
	Extract(ctx context.Context, document []byte) (TextExtractionResult, error)
}

// TextExtractionResult holds the recognized text page by page.
type TextExtractionResult struct {
	Pages    []string
	Duration time.Duration
	Warnings []string
}

// PageCount is the number of recognized pages.
func (r TextExtractionResult) PageCount() int { return len(r.Pages) }

// Text joins all pages into one document, page breaks as blank lines.
func (r TextExtractionResult) Text() string {
	return strings.Join(r.Pages, "\n\n")
}

// WordCount counts whitespace-separated tokens across all pages.
func (r TextExtractionResult) WordCount() int {
	n := 0
	for _, p := range r.Pages {
		n += len(strings.Fields(p))
	}
	return n
}
