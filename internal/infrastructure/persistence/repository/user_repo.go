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

const userColumns = `id, employee_id, email, name, role, status, lark_open_id, created_at`

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlite.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		u.ID, u.EmployeeID, u.Email, u.Name, u.Role, u.Status, u.LarkOpenID, u.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("id", u.ID), zap.Error(err))
		if isConstraintError(err) {
			return fmt.Errorf("user %s: %w", u.Email, port.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update overwrites a user's columns
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	query := `
		UPDATE users
		SET employee_id = ?, email = ?, name = ?, role = ?, status = ?, lark_open_id = ?
		WHERE id = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		u.EmployeeID, u.Email, u.Name, u.Role, u.Status, u.LarkOpenID, u.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update user", zap.String("id", u.ID), zap.Error(err))
		if isConstraintError(err) {
			return fmt.Errorf("user %s: %w", u.Email, port.ErrConflict)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %s: %w", u.ID, port.ErrNotFound)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	u, err := scanUser(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// List retrieves every user ordered by name
func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.EmployeeID, &u.Email, &u.Name, &u.Role, &u.Status, &u.LarkOpenID, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
