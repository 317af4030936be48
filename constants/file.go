package constants

import (
	"path/filepath"
	"strings"
)

// Only PDFs flow through the pipeline; other uploads are skipped at the trigger.
const PDFExt = "pdf"

// NormalizeExt lowercases an extension and strips the leading dot.
func NormalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// IsPDF reports whether path names a PDF document.
func IsPDF(path string) bool {
	return NormalizeExt(filepath.Ext(path)) == PDFExt
}
