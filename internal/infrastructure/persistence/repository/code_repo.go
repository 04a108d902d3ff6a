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

const codeColumns = `id, code, name, category, is_active, description, created_at`

// ApplicationCodeRepository implements port.ApplicationCodeRepository
type ApplicationCodeRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewApplicationCodeRepository creates a new application code repository
func NewApplicationCodeRepository(db *sqlite.DB, logger *zap.Logger) port.ApplicationCodeRepository {
	return &ApplicationCodeRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a code. Duplicate codes yield port.ErrConflict.
func (r *ApplicationCodeRepository) Create(ctx context.Context, code *entity.ApplicationCode) error {
	query := `
		INSERT INTO application_codes (id, code, name, category, is_active, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		code.ID,
		code.Code,
		code.Name,
		code.Category,
		code.IsActive,
		code.Description,
		code.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create application code", zap.String("code", code.Code), zap.Error(err))
		if isConstraintError(err) {
			return fmt.Errorf("application code %s: %w", code.Code, port.ErrConflict)
		}
		return fmt.Errorf("failed to create application code: %w", err)
	}
	return nil
}

// GetByID retrieves a code by ID
func (r *ApplicationCodeRepository) GetByID(ctx context.Context, id string) (*entity.ApplicationCode, error) {
	return r.getOne(ctx, `SELECT `+codeColumns+` FROM application_codes WHERE id = ?`, id)
}

// GetByCode retrieves a code by its code string
func (r *ApplicationCodeRepository) GetByCode(ctx context.Context, code string) (*entity.ApplicationCode, error) {
	return r.getOne(ctx, `SELECT `+codeColumns+` FROM application_codes WHERE code = ?`, code)
}

// List retrieves codes ordered by code
func (r *ApplicationCodeRepository) List(ctx context.Context, includeInactive bool) ([]*entity.ApplicationCode, error) {
	query := `SELECT ` + codeColumns + ` FROM application_codes`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY code ASC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list application codes", zap.Error(err))
		return nil, fmt.Errorf("failed to list application codes: %w", err)
	}
	defer rows.Close()

	var codes []*entity.ApplicationCode
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func (r *ApplicationCodeRepository) getOne(ctx context.Context, query string, arg string) (*entity.ApplicationCode, error) {
	c, err := scanCode(r.db.Executor(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get application code", zap.String("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get application code: %w", err)
	}
	return c, nil
}

func scanCode(row rowScanner) (*entity.ApplicationCode, error) {
	var c entity.ApplicationCode
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Category, &c.IsActive, &c.Description, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

var _ port.ApplicationCodeRepository = (*ApplicationCodeRepository)(nil)
