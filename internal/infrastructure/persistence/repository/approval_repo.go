package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/sqlite"
)

const approvalColumns = `
	id, applicant_id, application_code_id, form_data, status,
	submitted_at, approved_at, approver_id, remarks, created_at
`

// ApprovalRepository implements port.ApprovalRepository
type ApprovalRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sqlite.DB, logger *zap.Logger) port.ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new record
func (r *ApprovalRepository) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	form, err := entity.MarshalFormData(record.FormData)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO approvals (
			id, applicant_id, application_code_id, category, form_data, status,
			submitted_at, approved_at, approver_id, remarks, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		record.ID,
		record.ApplicantID,
		record.ApplicationCodeID,
		record.Category(),
		string(form),
		record.Status,
		nullTime(record.SubmittedAt),
		nullTime(record.ApprovedAt),
		record.ApproverID,
		record.Remarks,
		record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval", zap.String("id", record.ID), zap.Error(err))
		if isConstraintError(err) {
			return fmt.Errorf("failed to create approval: %w: %v", port.ErrConflict, err)
		}
		return fmt.Errorf("failed to create approval: %w", err)
	}

	return nil
}

// Update overwrites the mutable columns of a record
func (r *ApprovalRepository) Update(ctx context.Context, record *entity.ApprovalRecord) error {
	form, err := entity.MarshalFormData(record.FormData)
	if err != nil {
		return err
	}

	query := `
		UPDATE approvals
		SET form_data = ?, status = ?, submitted_at = ?, approved_at = ?,
			approver_id = ?, remarks = ?
		WHERE id = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		string(form),
		record.Status,
		nullTime(record.SubmittedAt),
		nullTime(record.ApprovedAt),
		record.ApproverID,
		record.Remarks,
		record.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update approval", zap.String("id", record.ID), zap.Error(err))
		return fmt.Errorf("failed to update approval: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("approval %s: %w", record.ID, port.ErrNotFound)
	}
	return nil
}

// GetByID retrieves a record by ID. A missing record yields (nil, nil).
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*entity.ApprovalRecord, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE id = ?`

	record, err := scanApproval(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return record, nil
}

// List retrieves every record, newest first
func (r *ApprovalRepository) List(ctx context.Context) ([]*entity.ApprovalRecord, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals ORDER BY created_at DESC, id ASC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list approvals", zap.Error(err))
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var records []*entity.ApprovalRecord
	for rows.Next() {
		record, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApproval(row rowScanner) (*entity.ApprovalRecord, error) {
	var (
		record      entity.ApprovalRecord
		form        string
		submittedAt sql.NullTime
		approvedAt  sql.NullTime
	)

	err := row.Scan(
		&record.ID,
		&record.ApplicantID,
		&record.ApplicationCodeID,
		&form,
		&record.Status,
		&submittedAt,
		&approvedAt,
		&record.ApproverID,
		&record.Remarks,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.FormData, err = entity.UnmarshalFormData([]byte(form))
	if err != nil {
		return nil, err
	}
	if submittedAt.Valid {
		t := submittedAt.Time.UTC()
		record.SubmittedAt = &t
	}
	if approvedAt.Valid {
		t := approvedAt.Time.UTC()
		record.ApprovedAt = &t
	}
	record.CreatedAt = record.CreatedAt.UTC()

	return &record, nil
}

var _ port.ApprovalRepository = (*ApprovalRepository)(nil)
