package port

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

// ErrEnrichmentUnavailable is returned when an enrichment cannot be produced.
// It never blocks the validated submission flow.
var ErrEnrichmentUnavailable = errors.New("enrichment unavailable")

// Document is an uploaded file offered for field suggestion
type Document struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Suggestion source values
const (
	SuggestionSourceModel    = "model"
	SuggestionSourceFilename = "filename"
)

// Suggestion holds proposed form values. It is never committed; callers
// show it to the user, who may pass edited values into createDraft or submit.
type Suggestion struct {
	ApplicationCodeID string                 `json:"applicationCodeId,omitempty"`
	Category          entity.Category        `json:"category,omitempty"`
	Fields            map[string]interface{} `json:"fields"`
	Source            string                 `json:"source"`
	DocumentPath      string                 `json:"documentPath,omitempty"`
}

// Enricher defines best-effort AI enrichment operations
type Enricher interface {
	Summarize(ctx context.Context, text string) (string, error)
	SuggestFields(ctx context.Context, doc Document) (*Suggestion, error)
}

// TextExtractor extracts plain text from document bytes
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte) (string, error)
}

// Messenger sends direct messages to users of the chat platform
type Messenger interface {
	SendText(ctx context.Context, openID, text string) error
}

// RateLimiter decides whether a keyed caller may proceed
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// ExportRow is one approval in a spreadsheet export
type ExportRow struct {
	ID            string
	Title         string
	ApplicantName string
	CodeName      string
	Status        entity.Status
	Amount        *decimal.Decimal
	CreatedAt     time.Time
	SubmittedAt   *time.Time
	ApprovedAt    *time.Time
}

// SpreadsheetWriter renders export rows as a workbook
type SpreadsheetWriter interface {
	WriteApprovals(ctx context.Context, rows []ExportRow) ([]byte, error)
}
