package gormstore

import (
	"time"

	"gorm.io/datatypes"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
)

type userRow struct {
	ID         string    `gorm:"type:varchar(64);primaryKey"`
	EmployeeID string    `gorm:"type:varchar(32)"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Role       string    `gorm:"type:varchar(20);not null;default:'user'"`
	Status     string    `gorm:"type:varchar(20);not null;default:'active'"`
	LarkOpenID string    `gorm:"type:varchar(64)"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

func userRowFrom(u *entity.User) userRow {
	return userRow{
		ID:         u.ID,
		EmployeeID: u.EmployeeID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Status:     u.Status,
		LarkOpenID: u.LarkOpenID,
		CreatedAt:  u.CreatedAt.UTC(),
	}
}

func (r userRow) toEntity() *entity.User {
	return &entity.User{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Email:      r.Email,
		Name:       r.Name,
		Role:       r.Role,
		Status:     r.Status,
		LarkOpenID: r.LarkOpenID,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type applicationCodeRow struct {
	ID          string    `gorm:"type:varchar(64);primaryKey"`
	Code        string    `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Category    string    `gorm:"type:varchar(8);not null;index"`
	IsActive    bool      `gorm:"not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (applicationCodeRow) TableName() string { return "application_codes" }

func codeRowFrom(c *entity.ApplicationCode) applicationCodeRow {
	return applicationCodeRow{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		Category:    string(c.Category),
		IsActive:    c.IsActive,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func (r applicationCodeRow) toEntity() *entity.ApplicationCode {
	return &entity.ApplicationCode{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Category:    entity.Category(r.Category),
		IsActive:    r.IsActive,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type recipientRow struct {
	ID            string `gorm:"type:varchar(64);primaryKey"`
	RecipientName string `gorm:"type:varchar(255);not null;index"`
	CompanyName   string `gorm:"type:varchar(255)"`
	BankCode      string `gorm:"type:char(4);not null"`
	BankName      string `gorm:"type:varchar(255);not null"`
	BranchCode    string `gorm:"type:char(3);not null"`
	BranchName    string `gorm:"type:varchar(255);not null"`
	AccountType   string `gorm:"type:varchar(8);not null"`
	AccountNumber string `gorm:"type:char(7);not null"`
	AccountHolder string `gorm:"type:varchar(255);not null"`
	NameReading   string `gorm:"type:varchar(255)"`
	Address       string `gorm:"type:text"`
	ContactPerson string `gorm:"type:varchar(255)"`
	Email         string `gorm:"type:varchar(255)"`
	PhoneNumber   string `gorm:"type:varchar(32)"`
	IsActive      bool   `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (recipientRow) TableName() string { return "payment_recipients" }

func recipientRowFrom(p *entity.PaymentRecipient) recipientRow {
	return recipientRow{
		ID:            p.ID,
		RecipientName: p.RecipientName,
		CompanyName:   p.CompanyName,
		BankCode:      p.BankCode,
		BankName:      p.BankName,
		BranchCode:    p.BranchCode,
		BranchName:    p.BranchName,
		AccountType:   p.AccountType,
		AccountNumber: p.AccountNumber,
		AccountHolder: p.AccountHolder,
		NameReading:   p.NameReading,
		Address:       p.Address,
		ContactPerson: p.ContactPerson,
		Email:         p.Email,
		PhoneNumber:   p.PhoneNumber,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r recipientRow) toEntity() *entity.PaymentRecipient {
	return &entity.PaymentRecipient{
		ID:            r.ID,
		RecipientName: r.RecipientName,
		CompanyName:   r.CompanyName,
		BankCode:      r.BankCode,
		BankName:      r.BankName,
		BranchCode:    r.BranchCode,
		BranchName:    r.BranchName,
		AccountType:   r.AccountType,
		AccountNumber: r.AccountNumber,
		AccountHolder: r.AccountHolder,
		NameReading:   r.NameReading,
		Address:       r.Address,
		ContactPerson: r.ContactPerson,
		Email:         r.Email,
		PhoneNumber:   r.PhoneNumber,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

// approvalRow keeps the category-tagged form in a jsonb column
type approvalRow struct {
	ID                string         `gorm:"type:varchar(64);primaryKey"`
	ApplicantID       string         `gorm:"type:varchar(64);not null;index"`
	ApplicationCodeID string         `gorm:"type:varchar(64);not null"`
	Category          string         `gorm:"type:varchar(8);not null"`
	FormData          datatypes.JSON `gorm:"type:jsonb;not null"`
	Status            string         `gorm:"type:varchar(20);not null;index"`
	SubmittedAt       *time.Time
	ApprovedAt        *time.Time
	ApproverID        string    `gorm:"type:varchar(64)"`
	Remarks           string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"not null;index"`
}

func (approvalRow) TableName() string { return "approvals" }

func approvalRowFrom(r *entity.ApprovalRecord) (approvalRow, error) {
	form, err := entity.MarshalFormData(r.FormData)
	if err != nil {
		return approvalRow{}, err
	}
	return approvalRow{
		ID:                r.ID,
		ApplicantID:       r.ApplicantID,
		ApplicationCodeID: r.ApplicationCodeID,
		Category:          string(r.Category()),
		FormData:          datatypes.JSON(form),
		Status:            string(r.Status),
		SubmittedAt:       utcPtr(r.SubmittedAt),
		ApprovedAt:        utcPtr(r.ApprovedAt),
		ApproverID:        r.ApproverID,
		Remarks:           r.Remarks,
		CreatedAt:         r.CreatedAt.UTC(),
	}, nil
}

func (r approvalRow) toEntity() (*entity.ApprovalRecord, error) {
	form, err := entity.UnmarshalFormData([]byte(r.FormData))
	if err != nil {
		return nil, err
	}
	return &entity.ApprovalRecord{
		ID:                r.ID,
		ApplicantID:       r.ApplicantID,
		ApplicationCodeID: r.ApplicationCodeID,
		FormData:          form,
		Status:            entity.Status(r.Status),
		SubmittedAt:       utcPtr(r.SubmittedAt),
		ApprovedAt:        utcPtr(r.ApprovedAt),
		ApproverID:        r.ApproverID,
		Remarks:           r.Remarks,
		CreatedAt:         r.CreatedAt.UTC(),
	}, nil
}

type historyRow struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	RecordID       string    `gorm:"type:varchar(64);not null;index"`
	ActorID        string    `gorm:"type:varchar(64)"`
	PreviousStatus string    `gorm:"type:varchar(20)"`
	NewStatus      string    `gorm:"type:varchar(20);not null"`
	ActionType     string    `gorm:"type:varchar(20);not null"`
	Remarks        string    `gorm:"type:text"`
	Timestamp      time.Time `gorm:"not null"`
}

func (historyRow) TableName() string { return "approval_history" }

func (r historyRow) toEntity() *entity.ApprovalHistory {
	return &entity.ApprovalHistory{
		ID:             r.ID,
		RecordID:       r.RecordID,
		ActorID:        r.ActorID,
		PreviousStatus: entity.Status(r.PreviousStatus),
		NewStatus:      entity.Status(r.NewStatus),
		ActionType:     r.ActionType,
		Remarks:        r.Remarks,
		Timestamp:      r.Timestamp.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
