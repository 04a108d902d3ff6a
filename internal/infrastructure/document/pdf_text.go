// Package document extracts text from uploaded documents.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// ErrEmptyDocument is returned for zero-length input
var ErrEmptyDocument = errors.New("empty document")

// DefaultMaxPages limits how many pages are read from one document
const DefaultMaxPages = 5

// PDFTextExtractor reads embedded text from PDF pages using mupdf
type PDFTextExtractor struct {
	maxPages int
	logger   *zap.Logger
}

// NewPDFTextExtractor creates a new extractor. maxPages <= 0 uses DefaultMaxPages.
func NewPDFTextExtractor(maxPages int, logger *zap.Logger) *PDFTextExtractor {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &PDFTextExtractor{maxPages: maxPages, logger: logger}
}

// ExtractText returns the text of the first pages joined by blank lines
func (e *PDFTextExtractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	if len(content) == 0 {
		return "", ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	limit := pageCount
	if limit > e.maxPages {
		limit = e.maxPages
	}

	e.logger.Debug("Extracting PDF text", zap.Int("total_pages", pageCount), zap.Int("pages_read", limit))

	pages := make([]string, 0, limit)
	for pageNum := 0; pageNum < limit; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := doc.Text(pageNum)
		if err != nil {
			e.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}
