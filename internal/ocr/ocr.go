// Package ocr reads positioned words from PDF directory pages for the
// coordinate extraction method.
package ocr

import (
	"context"

	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/model"
)

// WordExtractor returns every word of a PDF with its bounding box. Y grows
// downward from the top of each page.
type WordExtractor interface {
	ExtractWords(ctx context.Context, pdfPath string) ([]model.Word, error)
}

// NewExtractor creates the configured WordExtractor.
func NewExtractor(cfg config.ExtractConfig) WordExtractor {
	return NewPdfToText(cfg.PdfToTextPath)
}
