package port

import (
	"context"
	"errors"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

// ErrNotFound is returned by services when a referenced entity does not exist.
// Repositories themselves return (nil, nil) for a missing row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint
var ErrConflict = errors.New("conflict")

// ApprovalRepository defines persistence operations for ApprovalRecord
type ApprovalRepository interface {
	Create(ctx context.Context, record *entity.ApprovalRecord) error
	Update(ctx context.Context, record *entity.ApprovalRecord) error
	GetByID(ctx context.Context, id string) (*entity.ApprovalRecord, error)
	// List returns every record ordered by created_at descending
	List(ctx context.Context) ([]*entity.ApprovalRecord, error)
}

// ApplicationCodeRepository defines persistence operations for ApplicationCode
type ApplicationCodeRepository interface {
	Create(ctx context.Context, code *entity.ApplicationCode) error
	GetByID(ctx context.Context, id string) (*entity.ApplicationCode, error)
	GetByCode(ctx context.Context, code string) (*entity.ApplicationCode, error)
	// List returns codes ordered by code
	List(ctx context.Context, includeInactive bool) ([]*entity.ApplicationCode, error)
}

// RecipientRepository defines persistence operations for PaymentRecipient
type RecipientRepository interface {
	Create(ctx context.Context, recipient *entity.PaymentRecipient) error
	Update(ctx context.Context, recipient *entity.PaymentRecipient) error
	GetByID(ctx context.Context, id string) (*entity.PaymentRecipient, error)
	// List returns recipients ordered by recipient name
	List(ctx context.Context, includeInactive bool) ([]*entity.PaymentRecipient, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	// Update overwrites every column except id and created_at
	Update(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
}

// HistoryRepository defines persistence operations for ApprovalHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ApprovalHistory) error
	// GetByRecordID returns the history of a record in chronological order
	GetByRecordID(ctx context.Context, recordID string) ([]*entity.ApprovalHistory, error)
}

// TransactionManager manages database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
