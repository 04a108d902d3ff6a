package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/djishijima/hellbuild-v3/internal/application/dispatcher"
	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/domain/event"
	"github.com/djishijima/hellbuild-v3/internal/domain/schema"
	"github.com/djishijima/hellbuild-v3/internal/domain/validation"
	"github.com/djishijima/hellbuild-v3/pkg/utils"
)

// ReferenceService manages application codes, payment recipients and users
type ReferenceService interface {
	// ListApplicationCodes returns active codes ordered by code
	ListApplicationCodes(ctx context.Context) ([]*entity.ApplicationCode, error)
	CreateApplicationCode(ctx context.Context, code *entity.ApplicationCode) (*entity.ApplicationCode, error)

	// ListRecipients returns active recipients by name, or every recipient when includeInactive is set
	ListRecipients(ctx context.Context, includeInactive bool) ([]*entity.PaymentRecipient, error)
	// GetRecipient resolves a recipient even when it is inactive
	GetRecipient(ctx context.Context, id string) (*entity.PaymentRecipient, error)
	CreateRecipient(ctx context.Context, recipient *entity.PaymentRecipient) (*entity.PaymentRecipient, error)
	UpdateRecipient(ctx context.Context, recipient *entity.PaymentRecipient) (*entity.PaymentRecipient, error)
	DeactivateRecipient(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	// CreateUser stores a new user. Role defaults to user and status to active.
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	UpdateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	// DeactivateUser marks a user inactive. Users stay referenced by their records.
	DeactivateUser(ctx context.Context, id string) error
}

type referenceServiceImpl struct {
	codeRepo      port.ApplicationCodeRepository
	recipientRepo port.RecipientRepository
	userRepo      port.UserRepository
	dispatcher    dispatcher.Dispatcher
	logger        Logger
}

// NewReferenceService creates a new ReferenceService. dispatcher may be nil.
func NewReferenceService(
	codeRepo port.ApplicationCodeRepository,
	recipientRepo port.RecipientRepository,
	userRepo port.UserRepository,
	dispatcher dispatcher.Dispatcher,
	logger Logger,
) ReferenceService {
	return &referenceServiceImpl{
		codeRepo:      codeRepo,
		recipientRepo: recipientRepo,
		userRepo:      userRepo,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

func (s *referenceServiceImpl) ListApplicationCodes(ctx context.Context) ([]*entity.ApplicationCode, error) {
	codes, err := s.codeRepo.List(ctx, false)
	if err != nil {
		s.logger.Error("Failed to list application codes", "error", err)
		return nil, err
	}
	return codes, nil
}

// CreateApplicationCode stores a new code. Reserved categories may be stored
// but no record can be created against them.
func (s *referenceServiceImpl) CreateApplicationCode(ctx context.Context, code *entity.ApplicationCode) (*entity.ApplicationCode, error) {
	c := *code
	c.Code = strings.TrimSpace(c.Code)
	c.Name = strings.TrimSpace(c.Name)

	var errs []validation.FieldError
	if c.Code == "" {
		errs = append(errs, validation.FieldError{Field: "code", Code: validation.CodeRequired, Message: "is required"})
	}
	if c.Name == "" {
		errs = append(errs, validation.FieldError{Field: "name", Code: validation.CodeRequired, Message: "is required"})
	}
	if len(errs) > 0 {
		return nil, &validation.ValidationError{Errors: errs}
	}
	if !c.Category.IsKnown() {
		return nil, fmt.Errorf("%w: %q", schema.ErrUnknownCategory, c.Category)
	}

	existing, err := s.codeRepo.GetByCode(ctx, c.Code)
	if err != nil {
		return nil, fmt.Errorf("get application code: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("application code %s: %w", c.Code, port.ErrConflict)
	}

	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	if err := s.codeRepo.Create(ctx, &c); err != nil {
		s.logger.Error("Failed to create application code", "error", err, "code", c.Code)
		return nil, err
	}

	s.logger.Info("Application code created", "id", c.ID, "code", c.Code, "category", c.Category)
	return &c, nil
}

func (s *referenceServiceImpl) ListRecipients(ctx context.Context, includeInactive bool) ([]*entity.PaymentRecipient, error) {
	recipients, err := s.recipientRepo.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("Failed to list recipients", "error", err)
		return nil, err
	}
	return recipients, nil
}

func (s *referenceServiceImpl) GetRecipient(ctx context.Context, id string) (*entity.PaymentRecipient, error) {
	recipient, err := s.recipientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, fmt.Errorf("recipient %s: %w", id, port.ErrNotFound)
	}
	return recipient, nil
}

func (s *referenceServiceImpl) CreateRecipient(ctx context.Context, recipient *entity.PaymentRecipient) (*entity.PaymentRecipient, error) {
	r := normalizeRecipient(*recipient)
	if err := validateRecipient(r); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.IsActive = true
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := s.recipientRepo.Create(ctx, &r); err != nil {
		s.logger.Error("Failed to create recipient", "error", err)
		return nil, err
	}

	s.logger.Info("Recipient created", "id", r.ID, "name", r.RecipientName)
	s.emit(ctx, r.ID, "created")
	return &r, nil
}

// UpdateRecipient replaces the editable fields. Activation state is changed
// only through DeactivateRecipient.
func (s *referenceServiceImpl) UpdateRecipient(ctx context.Context, recipient *entity.PaymentRecipient) (*entity.PaymentRecipient, error) {
	current, err := s.GetRecipient(ctx, recipient.ID)
	if err != nil {
		return nil, err
	}

	r := normalizeRecipient(*recipient)
	if err := validateRecipient(r); err != nil {
		return nil, err
	}
	r.IsActive = current.IsActive
	r.CreatedAt = current.CreatedAt
	r.UpdatedAt = time.Now().UTC()

	if err := s.recipientRepo.Update(ctx, &r); err != nil {
		s.logger.Error("Failed to update recipient", "error", err, "id", r.ID)
		return nil, err
	}

	s.logger.Info("Recipient updated", "id", r.ID)
	s.emit(ctx, r.ID, "updated")
	return &r, nil
}

// DeactivateRecipient soft-deletes a recipient
func (s *referenceServiceImpl) DeactivateRecipient(ctx context.Context, id string) error {
	if _, err := s.GetRecipient(ctx, id); err != nil {
		return err
	}
	if err := s.recipientRepo.SetActive(ctx, id, false); err != nil {
		s.logger.Error("Failed to deactivate recipient", "error", err, "id", id)
		return err
	}

	s.logger.Info("Recipient deactivated", "id", id)
	s.emit(ctx, id, "deactivated")
	return nil
}

func (s *referenceServiceImpl) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.userRepo.List(ctx)
}

func (s *referenceServiceImpl) GetUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, port.ErrNotFound)
	}
	return user, nil
}

func (s *referenceServiceImpl) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	u := normalizeUser(*user)
	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	if u.Status == "" {
		u.Status = entity.UserStatusActive
	}
	if err := validateUser(u); err != nil {
		return nil, err
	}

	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	if err := s.userRepo.Create(ctx, &u); err != nil {
		s.logger.Error("Failed to create user", "error", err, "email", u.Email)
		return nil, err
	}

	s.logger.Info("User created", "id", u.ID, "role", u.Role)
	return &u, nil
}

// UpdateUser replaces the editable fields. An empty role or status keeps the stored value.
func (s *referenceServiceImpl) UpdateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	current, err := s.GetUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	u := normalizeUser(*user)
	if u.Role == "" {
		u.Role = current.Role
	}
	if u.Status == "" {
		u.Status = current.Status
	}
	if err := validateUser(u); err != nil {
		return nil, err
	}
	u.CreatedAt = current.CreatedAt

	if err := s.userRepo.Update(ctx, &u); err != nil {
		s.logger.Error("Failed to update user", "error", err, "id", u.ID)
		return nil, err
	}

	s.logger.Info("User updated", "id", u.ID)
	return &u, nil
}

func (s *referenceServiceImpl) DeactivateUser(ctx context.Context, id string) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	u.Status = entity.UserStatusInactive

	if err := s.userRepo.Update(ctx, u); err != nil {
		s.logger.Error("Failed to deactivate user", "error", err, "id", id)
		return err
	}

	s.logger.Info("User deactivated", "id", id)
	return nil
}

func (s *referenceServiceImpl) emit(ctx context.Context, recipientID, change string) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRecipientChanged, "", map[string]interface{}{
		"recipient_id": recipientID,
		"change":       change,
	}))
}

func normalizeRecipient(r entity.PaymentRecipient) entity.PaymentRecipient {
	for _, f := range []*string{
		&r.RecipientName, &r.CompanyName, &r.BankCode, &r.BankName, &r.BranchCode, &r.BranchName,
		&r.AccountType, &r.AccountNumber, &r.AccountHolder, &r.NameReading, &r.Address,
		&r.ContactPerson, &r.Email, &r.PhoneNumber,
	} {
		*f = utils.SanitizeString(*f)
	}
	return r
}

func validateRecipient(r entity.PaymentRecipient) error {
	var errs []validation.FieldError
	required := func(field, value string) bool {
		if value == "" {
			errs = append(errs, validation.FieldError{Field: field, Code: validation.CodeRequired, Message: "is required"})
			return false
		}
		return true
	}
	check := func(field, value string, fn func(string) error) {
		if !required(field, value) {
			return
		}
		if err := fn(value); err != nil {
			errs = append(errs, validation.FieldError{Field: field, Code: validation.CodeInvalid, Message: err.Error()})
		}
	}

	required("recipientName", r.RecipientName)
	required("bankName", r.BankName)
	required("branchName", r.BranchName)
	required("accountHolder", r.AccountHolder)
	check("bankCode", r.BankCode, utils.ValidateBankCode)
	check("branchCode", r.BranchCode, utils.ValidateBranchCode)
	check("accountType", r.AccountType, utils.ValidateAccountType)
	check("accountNumber", r.AccountNumber, utils.ValidateAccountNumber)
	if r.Email != "" {
		if err := utils.ValidateEmail(r.Email); err != nil {
			errs = append(errs, validation.FieldError{Field: "email", Code: validation.CodeInvalid, Message: err.Error()})
		}
	}

	if len(errs) > 0 {
		return &validation.ValidationError{Errors: errs}
	}
	return nil
}

func normalizeUser(u entity.User) entity.User {
	for _, f := range []*string{&u.EmployeeID, &u.Email, &u.Name, &u.Role, &u.Status, &u.LarkOpenID} {
		*f = utils.SanitizeString(*f)
	}
	return u
}

func validateUser(u entity.User) error {
	var errs []validation.FieldError
	if u.Name == "" {
		errs = append(errs, validation.FieldError{Field: "name", Code: validation.CodeRequired, Message: "is required"})
	}
	if u.Email == "" {
		errs = append(errs, validation.FieldError{Field: "email", Code: validation.CodeRequired, Message: "is required"})
	} else if err := utils.ValidateEmail(u.Email); err != nil {
		errs = append(errs, validation.FieldError{Field: "email", Code: validation.CodeInvalid, Message: err.Error()})
	}
	switch u.Role {
	case entity.RoleAdmin, entity.RoleManager, entity.RoleUser:
	default:
		errs = append(errs, validation.FieldError{Field: "role", Code: validation.CodeNotAllowed, Message: "must be admin, manager or user"})
	}
	switch u.Status {
	case entity.UserStatusActive, entity.UserStatusInactive:
	default:
		errs = append(errs, validation.FieldError{Field: "status", Code: validation.CodeNotAllowed, Message: "must be active or inactive"})
	}

	if len(errs) > 0 {
		return &validation.ValidationError{Errors: errs}
	}
	return nil
}
