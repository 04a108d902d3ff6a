package service

import (
	"context"
	"fmt"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/application/query"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

// ExportService renders filtered approvals as a spreadsheet
type ExportService interface {
	Export(ctx context.Context, criteria query.Criteria) ([]byte, error)
}

type exportServiceImpl struct {
	approvals ApprovalService
	writer    port.SpreadsheetWriter
	logger    Logger
}

// NewExportService creates a new ExportService
func NewExportService(approvals ApprovalService, writer port.SpreadsheetWriter, logger Logger) ExportService {
	return &exportServiceImpl{
		approvals: approvals,
		writer:    writer,
		logger:    logger,
	}
}

// Export writes every record matching criteria, newest first
func (s *exportServiceImpl) Export(ctx context.Context, criteria query.Criteria) ([]byte, error) {
	entries, err := s.approvals.Entries(ctx, criteria)
	if err != nil {
		return nil, err
	}

	rows := make([]port.ExportRow, len(entries))
	for i, e := range entries {
		rows[i] = exportRow(e)
	}

	data, err := s.writer.WriteApprovals(ctx, rows)
	if err != nil {
		s.logger.Error("Failed to write export", "error", err, "rows", len(rows))
		return nil, fmt.Errorf("write export: %w", err)
	}

	s.logger.Info("Approvals exported", "rows", len(rows), "bytes", len(data))
	return data, nil
}

func exportRow(e query.Entry) port.ExportRow {
	r := e.Record
	row := port.ExportRow{
		ID:            r.ID,
		Title:         r.Title(),
		ApplicantName: e.ApplicantName,
		CodeName:      e.CodeName,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		SubmittedAt:   r.SubmittedAt,
		ApprovedAt:    r.ApprovedAt,
	}
	if amount, ok := entity.AmountOf(r.FormData); ok {
		row.Amount = &amount
	}
	return row
}
