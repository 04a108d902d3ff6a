package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history entry
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ApprovalHistory) error {
	query := `
		INSERT INTO approval_history (
			record_id, actor_id, previous_status, new_status,
			action_type, remarks, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		history.RecordID,
		history.ActorID,
		history.PreviousStatus,
		history.NewStatus,
		history.ActionType,
		history.Remarks,
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.String("record_id", history.RecordID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// GetByRecordID retrieves the history of a record in the order it was written
func (r *HistoryRepository) GetByRecordID(ctx context.Context, recordID string) ([]*entity.ApprovalHistory, error) {
	query := `
		SELECT id, record_id, actor_id, previous_status, new_status,
			action_type, remarks, timestamp
		FROM approval_history
		WHERE record_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, recordID)
	if err != nil {
		r.logger.Error("Failed to get history by record ID", zap.String("record_id", recordID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.ApprovalHistory
	for rows.Next() {
		var h entity.ApprovalHistory
		err := rows.Scan(
			&h.ID,
			&h.RecordID,
			&h.ActorID,
			&h.PreviousStatus,
			&h.NewStatus,
			&h.ActionType,
			&h.Remarks,
			&h.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &h)
	}

	return records, rows.Err()
}

var _ port.HistoryRepository = (*HistoryRepository)(nil)
