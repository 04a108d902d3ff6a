package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

// ApprovalRepository implements port.ApprovalRepository
type ApprovalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new ApprovalRepository
func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	row, err := approvalRowFrom(record)
	if err != nil {
		return err
	}
	if err := getDB(ctx, r.db).Create(&row).Error; err != nil {
		return translate(err, "create approval")
	}
	return nil
}

func (r *ApprovalRepository) Update(ctx context.Context, record *entity.ApprovalRecord) error {
	row, err := approvalRowFrom(record)
	if err != nil {
		return err
	}
	result := getDB(ctx, r.db).Model(&approvalRow{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
		"form_data":    row.FormData,
		"status":       row.Status,
		"submitted_at": row.SubmittedAt,
		"approved_at":  row.ApprovedAt,
		"approver_id":  row.ApproverID,
		"remarks":      row.Remarks,
	})
	if result.Error != nil {
		return translate(result.Error, "update approval")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("approval %s: %w", record.ID, port.ErrNotFound)
	}
	return nil
}

func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*entity.ApprovalRecord, error) {
	var row approvalRow
	if err := getDB(ctx, r.db).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err, "get approval")
	}
	return row.toEntity()
}

func (r *ApprovalRepository) List(ctx context.Context) ([]*entity.ApprovalRecord, error) {
	var rows []approvalRow
	if err := getDB(ctx, r.db).Order("created_at DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, translate(err, "list approvals")
	}

	records := make([]*entity.ApprovalRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toEntity()
		if err != nil {
			return nil, fmt.Errorf("decode approval %s: %w", row.ID, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ApplicationCodeRepository implements port.ApplicationCodeRepository
type ApplicationCodeRepository struct {
	db *gorm.DB
}

// NewApplicationCodeRepository creates a new ApplicationCodeRepository
func NewApplicationCodeRepository(db *gorm.DB) *ApplicationCodeRepository {
	return &ApplicationCodeRepository{db: db}
}

func (r *ApplicationCodeRepository) Create(ctx context.Context, code *entity.ApplicationCode) error {
	row := codeRowFrom(code)
	if err := getDB(ctx, r.db).Create(&row).Error; err != nil {
		return translate(err, "create application code")
	}
	return nil
}

func (r *ApplicationCodeRepository) GetByID(ctx context.Context, id string) (*entity.ApplicationCode, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ApplicationCodeRepository) GetByCode(ctx context.Context, code string) (*entity.ApplicationCode, error) {
	return r.first(ctx, "code = ?", code)
}

func (r *ApplicationCodeRepository) List(ctx context.Context, includeInactive bool) ([]*entity.ApplicationCode, error) {
	q := getDB(ctx, r.db).Order("code ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var rows []applicationCodeRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "list application codes")
	}

	codes := make([]*entity.ApplicationCode, len(rows))
	for i, row := range rows {
		codes[i] = row.toEntity()
	}
	return codes, nil
}

func (r *ApplicationCodeRepository) first(ctx context.Context, query string, arg string) (*entity.ApplicationCode, error) {
	var row applicationCodeRow
	if err := getDB(ctx, r.db).First(&row, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err, "get application code")
	}
	return row.toEntity(), nil
}

// RecipientRepository implements port.RecipientRepository
type RecipientRepository struct {
	db *gorm.DB
}

// NewRecipientRepository creates a new RecipientRepository
func NewRecipientRepository(db *gorm.DB) *RecipientRepository {
	return &RecipientRepository{db: db}
}

func (r *RecipientRepository) Create(ctx context.Context, p *entity.PaymentRecipient) error {
	row := recipientRowFrom(p)
	if err := getDB(ctx, r.db).Create(&row).Error; err != nil {
		return translate(err, "create recipient")
	}
	return nil
}

func (r *RecipientRepository) Update(ctx context.Context, p *entity.PaymentRecipient) error {
	row := recipientRowFrom(p)
	// Select("*") writes zero values such as IsActive=false
	result := getDB(ctx, r.db).Model(&recipientRow{}).Where("id = ?", row.ID).Select("*").Omit("id", "created_at").Updates(&row)
	if result.Error != nil {
		return translate(result.Error, "update recipient")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("recipient %s: %w", p.ID, port.ErrNotFound)
	}
	return nil
}

func (r *RecipientRepository) GetByID(ctx context.Context, id string) (*entity.PaymentRecipient, error) {
	var row recipientRow
	if err := getDB(ctx, r.db).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err, "get recipient")
	}
	return row.toEntity(), nil
}

func (r *RecipientRepository) List(ctx context.Context, includeInactive bool) ([]*entity.PaymentRecipient, error) {
	q := getDB(ctx, r.db).Order("recipient_name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var rows []recipientRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "list recipients")
	}

	recipients := make([]*entity.PaymentRecipient, len(rows))
	for i, row := range rows {
		recipients[i] = row.toEntity()
	}
	return recipients, nil
}

func (r *RecipientRepository) SetActive(ctx context.Context, id string, active bool) error {
	result := getDB(ctx, r.db).Model(&recipientRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return translate(result.Error, "update recipient")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("recipient %s: %w", id, port.ErrNotFound)
	}
	return nil
}

// UserRepository implements port.UserRepository
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := userRowFrom(u)
	if err := getDB(ctx, r.db).Create(&row).Error; err != nil {
		return translate(err, "create user")
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	row := userRowFrom(u)
	result := getDB(ctx, r.db).Model(&userRow{}).Where("id = ?", row.ID).Select("*").Omit("id", "created_at").Updates(&row)
	if result.Error != nil {
		return translate(result.Error, "update user")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", u.ID, port.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var row userRow
	if err := getDB(ctx, r.db).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err, "get user")
	}
	return row.toEntity(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	var rows []userRow
	if err := getDB(ctx, r.db).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, translate(err, "list users")
	}
	users := make([]*entity.User, len(rows))
	for i, row := range rows {
		users[i] = row.toEntity()
	}
	return users, nil
}

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(ctx context.Context, h *entity.ApprovalHistory) error {
	row := historyRow{
		RecordID:       h.RecordID,
		ActorID:        h.ActorID,
		PreviousStatus: string(h.PreviousStatus),
		NewStatus:      string(h.NewStatus),
		ActionType:     h.ActionType,
		Remarks:        h.Remarks,
		Timestamp:      h.Timestamp.UTC(),
	}
	if err := getDB(ctx, r.db).Create(&row).Error; err != nil {
		return translate(err, "create history")
	}
	h.ID = row.ID
	return nil
}

func (r *HistoryRepository) GetByRecordID(ctx context.Context, recordID string) ([]*entity.ApprovalHistory, error) {
	var rows []historyRow
	if err := getDB(ctx, r.db).Where("record_id = ?", recordID).Order("timestamp ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, translate(err, "get history")
	}
	history := make([]*entity.ApprovalHistory, len(rows))
	for i, row := range rows {
		history[i] = row.toEntity()
	}
	return history, nil
}

// translate maps GORM errors onto port errors
func translate(err error, op string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, port.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	_ port.ApprovalRepository        = (*ApprovalRepository)(nil)
	_ port.ApplicationCodeRepository = (*ApplicationCodeRepository)(nil)
	_ port.RecipientRepository       = (*RecipientRepository)(nil)
	_ port.UserRepository            = (*UserRepository)(nil)
	_ port.HistoryRepository         = (*HistoryRepository)(nil)
)
