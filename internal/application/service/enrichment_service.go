package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

// EnrichmentService offers optional AI assistance. Nothing it returns is committed.
type EnrichmentService interface {
	// Summarize condenses approval comments. Empty text returns "".
	Summarize(ctx context.Context, text string) (string, error)

	// Suggest stores the document for later reference and proposes form values for it
	Suggest(ctx context.Context, applicantID string, doc port.Document) (*port.Suggestion, error)
}

type enrichmentServiceImpl struct {
	enricher port.Enricher
	storage  port.FileStorage
	folders  port.FolderManager
	codeRepo port.ApplicationCodeRepository
	logger   Logger
}

// NewEnrichmentService creates a new EnrichmentService. enricher may be nil
// when no model is configured; suggestions then come from the file name.
func NewEnrichmentService(
	enricher port.Enricher,
	storage port.FileStorage,
	folders port.FolderManager,
	codeRepo port.ApplicationCodeRepository,
	logger Logger,
) EnrichmentService {
	return &enrichmentServiceImpl{
		enricher: enricher,
		storage:  storage,
		folders:  folders,
		codeRepo: codeRepo,
		logger:   logger,
	}
}

func (s *enrichmentServiceImpl) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if s.enricher == nil {
		return "", fmt.Errorf("%w: no model configured", port.ErrEnrichmentUnavailable)
	}

	summary, err := s.enricher.Summarize(ctx, text)
	if err != nil {
		s.logger.Error("Summarize failed", "error", err)
		if errors.Is(err, port.ErrEnrichmentUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", port.ErrEnrichmentUnavailable, err)
	}
	return summary, nil
}

func (s *enrichmentServiceImpl) Suggest(ctx context.Context, applicantID string, doc port.Document) (*port.Suggestion, error) {
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", port.ErrEnrichmentUnavailable)
	}

	storedPath, err := s.store(ctx, applicantID, doc)
	if err != nil {
		// Suggestion does not depend on the stored copy
		s.logger.Error("Failed to store uploaded document", "error", err, "file_name", doc.FileName)
	}

	var suggestion *port.Suggestion
	if s.enricher != nil {
		suggestion, err = s.enricher.SuggestFields(ctx, doc)
		if err != nil {
			s.logger.Info("Model suggestion unavailable, using file name", "error", err, "file_name", doc.FileName)
			suggestion = nil
		}
	}
	if suggestion == nil {
		suggestion = filenameSuggestion(doc.FileName)
	}
	if suggestion.Fields == nil {
		suggestion.Fields = map[string]interface{}{}
	}
	suggestion.DocumentPath = storedPath

	if suggestion.ApplicationCodeID == "" && suggestion.Category != "" {
		suggestion.ApplicationCodeID = s.codeFor(ctx, suggestion.Category)
	}
	if storedPath != "" {
		attachDocument(suggestion, storedPath)
	}

	return suggestion, nil
}

func (s *enrichmentServiceImpl) store(ctx context.Context, applicantID string, doc port.Document) (string, error) {
	if s.storage == nil || s.folders == nil {
		return "", nil
	}

	folder := s.folders.SanitizeName(applicantID)
	if folder == "" {
		folder = "anonymous"
	}
	if _, err := s.folders.CreateFolder(ctx, folder); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), s.folders.SanitizeName(filepath.Base(doc.FileName)))
	rel := path.Join(folder, name)
	if err := s.storage.Save(ctx, rel, doc.Content); err != nil {
		return "", err
	}
	return rel, nil
}

// codeFor returns the first active code of a category, or ""
func (s *enrichmentServiceImpl) codeFor(ctx context.Context, category entity.Category) string {
	codes, err := s.codeRepo.List(ctx, false)
	if err != nil {
		s.logger.Error("Failed to list application codes", "error", err)
		return ""
	}
	for _, c := range codes {
		if c.Category == category {
			return c.ID
		}
	}
	return ""
}

// attachDocument points the form's receipt or attachment field at the stored upload
func attachDocument(s *port.Suggestion, storedPath string) {
	switch s.Category {
	case entity.CategoryExpense, entity.CategoryTransport:
		if _, ok := s.Fields["receiptUrl"]; !ok {
			s.Fields["receiptUrl"] = storedPath
		}
	case entity.CategoryNoCost:
		if _, ok := s.Fields["attachmentUrl"]; !ok {
			s.Fields["attachmentUrl"] = storedPath
		}
	}
}

// filenameSuggestion derives a suggestion from well-known document names
func filenameSuggestion(fileName string) *port.Suggestion {
	lower := strings.ToLower(fileName)
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")

	switch {
	case strings.Contains(lower, "経費申請書") && ext == "pdf":
		return &port.Suggestion{
			Category: entity.CategoryExpense,
			Source:   port.SuggestionSourceFilename,
			Fields: map[string]interface{}{
				"title":   "出張経費レポート",
				"subject": string(entity.SubjectTravel),
				"content": "出張に伴う航空券および現地交通費",
			},
		}
	case strings.Contains(lower, "交通費領収書") && (ext == "jpg" || ext == "jpeg" || ext == "png"):
		return &port.Suggestion{
			Category: entity.CategoryTransport,
			Source:   port.SuggestionSourceFilename,
			Fields: map[string]interface{}{
				"title": "交通費精算",
			},
		}
	case strings.Contains(lower, "請求書"):
		return &port.Suggestion{
			Category: entity.CategoryExpense,
			Source:   port.SuggestionSourceFilename,
			Fields: map[string]interface{}{
				"title":   fmt.Sprintf("請求書対応 (%s)", stem),
				"subject": string(entity.SubjectOther),
				"content": fmt.Sprintf("請求書 %s の支払い", stem),
			},
		}
	default:
		return &port.Suggestion{
			Source: port.SuggestionSourceFilename,
			Fields: map[string]interface{}{
				"title":   stem,
				"content": fmt.Sprintf("ファイル '%s' の内容を確認し、詳細を記載してください。", fileName),
			},
		}
	}
}
