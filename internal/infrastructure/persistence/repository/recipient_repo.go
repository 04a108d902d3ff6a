package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/sqlite"
)

const recipientColumns = `
	id, recipient_name, company_name, bank_code, bank_name, branch_code, branch_name,
	account_type, account_number, account_holder, name_reading, address,
	contact_person, email, phone_number, is_active, created_at, updated_at
`

// RecipientRepository implements port.RecipientRepository
type RecipientRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRecipientRepository creates a new payment recipient repository
func NewRecipientRepository(db *sqlite.DB, logger *zap.Logger) port.RecipientRepository {
	return &RecipientRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a recipient
func (r *RecipientRepository) Create(ctx context.Context, p *entity.PaymentRecipient) error {
	query := `
		INSERT INTO payment_recipients (` + recipientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		p.ID, p.RecipientName, p.CompanyName, p.BankCode, p.BankName, p.BranchCode, p.BranchName,
		p.AccountType, p.AccountNumber, p.AccountHolder, p.NameReading, p.Address,
		p.ContactPerson, p.Email, p.PhoneNumber, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create recipient", zap.String("id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to create recipient: %w", err)
	}
	return nil
}

// Update overwrites a recipient's columns
func (r *RecipientRepository) Update(ctx context.Context, p *entity.PaymentRecipient) error {
	query := `
		UPDATE payment_recipients
		SET recipient_name = ?, company_name = ?, bank_code = ?, bank_name = ?,
			branch_code = ?, branch_name = ?, account_type = ?, account_number = ?,
			account_holder = ?, name_reading = ?, address = ?, contact_person = ?,
			email = ?, phone_number = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		p.RecipientName, p.CompanyName, p.BankCode, p.BankName,
		p.BranchCode, p.BranchName, p.AccountType, p.AccountNumber,
		p.AccountHolder, p.NameReading, p.Address, p.ContactPerson,
		p.Email, p.PhoneNumber, p.IsActive, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update recipient", zap.String("id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to update recipient: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("recipient %s: %w", p.ID, port.ErrNotFound)
	}
	return nil
}

// GetByID retrieves a recipient whether or not it is active
func (r *RecipientRepository) GetByID(ctx context.Context, id string) (*entity.PaymentRecipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM payment_recipients WHERE id = ?`

	p, err := scanRecipient(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get recipient", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	return p, nil
}

// List retrieves recipients ordered by name
func (r *RecipientRepository) List(ctx context.Context, includeInactive bool) ([]*entity.PaymentRecipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM payment_recipients`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY recipient_name ASC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list recipients", zap.Error(err))
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []*entity.PaymentRecipient
	for rows.Next() {
		p, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, p)
	}
	return recipients, rows.Err()
}

// SetActive toggles the soft-delete flag
func (r *RecipientRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE payment_recipients SET is_active = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, active, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to set recipient active flag", zap.String("id", id), zap.Bool("active", active), zap.Error(err))
		return fmt.Errorf("failed to update recipient: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("recipient %s: %w", id, port.ErrNotFound)
	}
	return nil
}

func scanRecipient(row rowScanner) (*entity.PaymentRecipient, error) {
	var p entity.PaymentRecipient
	err := row.Scan(
		&p.ID, &p.RecipientName, &p.CompanyName, &p.BankCode, &p.BankName, &p.BranchCode, &p.BranchName,
		&p.AccountType, &p.AccountNumber, &p.AccountHolder, &p.NameReading, &p.Address,
		&p.ContactPerson, &p.Email, &p.PhoneNumber, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

var _ port.RecipientRepository = (*RecipientRepository)(nil)
