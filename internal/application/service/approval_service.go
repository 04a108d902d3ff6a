package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/djishijima/hellbuild-v3/internal/application/dispatcher"
	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/application/query"
	"github.com/djishijima/hellbuild-v3/internal/application/workflow"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/domain/event"
	"github.com/djishijima/hellbuild-v3/internal/domain/validation"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Pagination defaults
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// PageRequest selects a page of a list
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize applies the pagination defaults and bounds
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// ApprovalView is a record joined with its display names
type ApprovalView struct {
	Record        *entity.ApprovalRecord `json:"record"`
	ApplicantName string                 `json:"applicantName,omitempty"`
	CodeName      string                 `json:"codeName,omitempty"`
	Category      entity.Category        `json:"category"`
	StatusLabel   string                 `json:"statusLabel"`
}

// ListResult is one page of approvals
type ListResult struct {
	Items []ApprovalView `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// DashboardStats summarizes all approval records
type DashboardStats struct {
	Total          int                   `json:"total"`
	ByStatus       map[entity.Status]int `json:"byStatus"`
	Pending        int                   `json:"pending"`
	ApprovedAmount decimal.Decimal       `json:"approvedAmount"`
	TotalUsers     int                   `json:"totalUsers"`
}

// ApprovalService creates and transitions persisted approval records
type ApprovalService interface {
	CreateDraft(ctx context.Context, applicantID, codeID string, raw validation.RawPayload) (*entity.ApprovalRecord, error)
	SubmitNew(ctx context.Context, applicantID, codeID string, raw validation.RawPayload) (*entity.ApprovalRecord, error)
	// Submit submits a Draft or Returned record. A nil raw keeps the stored form data.
	Submit(ctx context.Context, recordID, actorID string, raw validation.RawPayload) (*entity.ApprovalRecord, error)
	Approve(ctx context.Context, recordID, approverID, remarks string) (*entity.ApprovalRecord, error)
	Reject(ctx context.Context, recordID, approverID, remarks string) (*entity.ApprovalRecord, error)
	Return(ctx context.Context, recordID, actorID, remarks string) (*entity.ApprovalRecord, error)
	Transition(ctx context.Context, recordID, actorID string, target entity.Status, tc workflow.TransitionContext) (*entity.ApprovalRecord, error)

	GetRecord(ctx context.Context, id string) (*entity.ApprovalRecord, error)
	GetHistory(ctx context.Context, recordID string) ([]*entity.ApprovalHistory, error)
	List(ctx context.Context, criteria query.Criteria, page PageRequest) (*ListResult, error)
	// Entries returns every matching record, newest first, joined with display names
	Entries(ctx context.Context, criteria query.Criteria) ([]query.Entry, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

type approvalServiceImpl struct {
	engine        workflow.Engine
	approvalRepo  port.ApprovalRepository
	codeRepo      port.ApplicationCodeRepository
	recipientRepo port.RecipientRepository
	userRepo      port.UserRepository
	historyRepo   port.HistoryRepository
	txManager     port.TransactionManager
	dispatcher    dispatcher.Dispatcher
	logger        Logger
}

// NewApprovalService creates a new ApprovalService. dispatcher may be nil.
func NewApprovalService(
	engine workflow.Engine,
	approvalRepo port.ApprovalRepository,
	codeRepo port.ApplicationCodeRepository,
	recipientRepo port.RecipientRepository,
	userRepo port.UserRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	dispatcher dispatcher.Dispatcher,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		engine:        engine,
		approvalRepo:  approvalRepo,
		codeRepo:      codeRepo,
		recipientRepo: recipientRepo,
		userRepo:      userRepo,
		historyRepo:   historyRepo,
		txManager:     txManager,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// CreateDraft creates and stores a Draft record
func (s *approvalServiceImpl) CreateDraft(ctx context.Context, applicantID, codeID string, raw validation.RawPayload) (*entity.ApprovalRecord, error) {
	return s.create(ctx, applicantID, codeID, raw, entity.ActionCreateDraft, s.engine.CreateDraft)
}

// SubmitNew creates and stores a record directly in Submitted
func (s *approvalServiceImpl) SubmitNew(ctx context.Context, applicantID, codeID string, raw validation.RawPayload) (*entity.ApprovalRecord, error) {
	return s.create(ctx, applicantID, codeID, raw, entity.ActionSubmit, s.engine.SubmitNew)
}

type createFunc func(ctx context.Context, codes []entity.ApplicationCode, applicantID, codeID string, raw validation.RawPayload) (*entity.ApprovalRecord, error)

func (s *approvalServiceImpl) create(ctx context.Context, applicantID, codeID string, raw validation.RawPayload, action string, build createFunc) (*entity.ApprovalRecord, error) {
	codes, err := s.activeCodes(ctx)
	if err != nil {
		return nil, err
	}

	record, err := build(ctx, codes, applicantID, codeID, raw)
	if err != nil {
		s.logger.Info("Approval rejected by engine", "applicant_id", applicantID, "code_id", codeID, "error", err)
		return nil, err
	}
	if err := s.checkRecipient(ctx, record.FormData); err != nil {
		s.logger.Info("Approval rejected", "applicant_id", applicantID, "code_id", codeID, "error", err)
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.approvalRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("create approval: %w", err)
		}

		history := &entity.ApprovalHistory{
			RecordID:   record.ID,
			ActorID:    applicantID,
			NewStatus:  record.Status,
			ActionType: action,
			Timestamp:  record.CreatedAt,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create approval", "error", err, "applicant_id", applicantID)
		return nil, err
	}

	s.logger.Info("Approval created", "id", record.ID, "status", record.Status, "category", record.Category())

	s.emit(ctx, event.TypeApprovalCreated, record, "", applicantID)
	if record.Status == entity.StatusSubmitted {
		s.emit(ctx, event.TypeApprovalSubmitted, record, "", applicantID)
	}
	return record, nil
}

// Submit submits a Draft or Returned record
func (s *approvalServiceImpl) Submit(ctx context.Context, recordID, actorID string, raw validation.RawPayload) (*entity.ApprovalRecord, error) {
	return s.Transition(ctx, recordID, actorID, entity.StatusSubmitted, workflow.TransitionContext{FormData: raw})
}

// Approve approves a Submitted record. remarks are kept in the history only.
func (s *approvalServiceImpl) Approve(ctx context.Context, recordID, approverID, remarks string) (*entity.ApprovalRecord, error) {
	return s.Transition(ctx, recordID, approverID, entity.StatusApproved, workflow.TransitionContext{ApproverID: approverID, Remarks: remarks})
}

// Reject rejects a Submitted record
func (s *approvalServiceImpl) Reject(ctx context.Context, recordID, approverID, remarks string) (*entity.ApprovalRecord, error) {
	return s.Transition(ctx, recordID, approverID, entity.StatusRejected, workflow.TransitionContext{ApproverID: approverID, Remarks: remarks})
}

// Return sends a Submitted record back to its applicant
func (s *approvalServiceImpl) Return(ctx context.Context, recordID, actorID, remarks string) (*entity.ApprovalRecord, error) {
	return s.Transition(ctx, recordID, actorID, entity.StatusReturned, workflow.TransitionContext{Remarks: remarks})
}

// Transition moves a stored record to target and records the change
func (s *approvalServiceImpl) Transition(ctx context.Context, recordID, actorID string, target entity.Status, tc workflow.TransitionContext) (*entity.ApprovalRecord, error) {
	var previous entity.Status
	var next *entity.ApprovalRecord

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.approvalRepo.GetByID(txCtx, recordID)
		if err != nil {
			return fmt.Errorf("get approval: %w", err)
		}
		if current == nil {
			return fmt.Errorf("approval %s: %w", recordID, port.ErrNotFound)
		}
		previous = current.Status

		next, err = s.engine.Transition(txCtx, current, target, tc)
		if err != nil {
			return err
		}
		if next.Status == entity.StatusSubmitted {
			if err := s.checkRecipient(txCtx, next.FormData); err != nil {
				return err
			}
		}

		if err := s.approvalRepo.Update(txCtx, next); err != nil {
			return fmt.Errorf("update approval: %w", err)
		}

		history := &entity.ApprovalHistory{
			RecordID:       recordID,
			ActorID:        actorID,
			PreviousStatus: previous,
			NewStatus:      next.Status,
			ActionType:     actionFor(target),
			Remarks:        strings.TrimSpace(tc.Remarks),
			Timestamp:      s.stampOf(next),
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to transition approval", "error", err, "id", recordID, "target", target)
		return nil, err
	}

	s.logger.Info("Approval transitioned", "id", recordID, "from", previous, "to", next.Status, "actor_id", actorID)

	s.emit(ctx, eventFor(next.Status), next, previous, actorID)
	s.emit(ctx, event.TypeStatusChanged, next, previous, actorID)
	return next, nil
}

// GetRecord retrieves a record by id
func (s *approvalServiceImpl) GetRecord(ctx context.Context, id string) (*entity.ApprovalRecord, error) {
	record, err := s.approvalRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get approval", "error", err, "id", id)
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("approval %s: %w", id, port.ErrNotFound)
	}
	return record, nil
}

// GetHistory returns the status history of a record
func (s *approvalServiceImpl) GetHistory(ctx context.Context, recordID string) ([]*entity.ApprovalHistory, error) {
	if _, err := s.GetRecord(ctx, recordID); err != nil {
		return nil, err
	}
	history, err := s.historyRepo.GetByRecordID(ctx, recordID)
	if err != nil {
		s.logger.Error("Failed to get history", "error", err, "id", recordID)
		return nil, err
	}
	return history, nil
}

// List returns one page of filtered records, newest first
func (s *approvalServiceImpl) List(ctx context.Context, criteria query.Criteria, page PageRequest) (*ListResult, error) {
	entries, err := s.Entries(ctx, criteria)
	if err != nil {
		return nil, err
	}

	page = page.Normalize()
	paged := query.Page(entries, page.Page, page.Limit)

	items := make([]ApprovalView, len(paged))
	for i, e := range paged {
		items[i] = ApprovalView{
			Record:        e.Record,
			ApplicantName: e.ApplicantName,
			CodeName:      e.CodeName,
			Category:      e.Record.Category(),
			StatusLabel:   e.Record.Status.Label(),
		}
	}

	return &ListResult{Items: items, Total: len(entries), Page: page.Page, Limit: page.Limit}, nil
}

// Entries joins every record with applicant and code names, then filters and sorts
func (s *approvalServiceImpl) Entries(ctx context.Context, criteria query.Criteria) ([]query.Entry, error) {
	records, err := s.approvalRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list approvals", "error", err)
		return nil, err
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	userNames := make(map[string]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.Name
	}

	// Inactive codes still resolve for historical records
	codes, err := s.codeRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list application codes: %w", err)
	}
	codeNames := make(map[string]string, len(codes))
	for _, c := range codes {
		codeNames[c.ID] = c.Name
	}

	entries := make([]query.Entry, len(records))
	for i, r := range records {
		entries[i] = query.Entry{
			Record:        r,
			ApplicantName: userNames[r.ApplicantID],
			CodeName:      codeNames[r.ApplicationCodeID],
		}
	}

	return query.FilterAndSort(entries, criteria), nil
}

// DashboardStats counts records per status and totals approved amounts
func (s *approvalServiceImpl) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	records, err := s.approvalRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list approvals", "error", err)
		return nil, err
	}

	stats := &DashboardStats{
		Total:          len(records),
		ByStatus:       make(map[entity.Status]int, len(entity.AllStatuses())),
		ApprovedAmount: decimal.Zero,
	}
	for _, status := range entity.AllStatuses() {
		stats.ByStatus[status] = 0
	}

	for _, r := range records {
		stats.ByStatus[r.Status]++
		if r.Status != entity.StatusApproved {
			continue
		}
		if amount, ok := entity.AmountOf(r.FormData); ok {
			stats.ApprovedAmount = stats.ApprovedAmount.Add(amount)
		}
	}
	stats.Pending = stats.ByStatus[entity.StatusSubmitted]

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	stats.TotalUsers = len(users)

	return stats, nil
}

// checkRecipient rejects forms whose payment recipient is unknown or deactivated
func (s *approvalServiceImpl) checkRecipient(ctx context.Context, form entity.FormData) error {
	id, ok := entity.RecipientOf(form)
	if !ok || id == "" {
		return nil
	}

	recipient, err := s.recipientRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get recipient: %w", err)
	}
	switch {
	case recipient == nil:
		return &validation.ValidationError{Errors: []validation.FieldError{
			{Field: "recipientId", Code: validation.CodeInvalid, Message: "refers to an unknown payment recipient"},
		}}
	case !recipient.IsActive:
		return &validation.ValidationError{Errors: []validation.FieldError{
			{Field: "recipientId", Code: validation.CodeNotAllowed, Message: "payment recipient is inactive"},
		}}
	}
	return nil
}

// stampOf returns the lifecycle stamp the engine set for the record's status
func (s *approvalServiceImpl) stampOf(record *entity.ApprovalRecord) time.Time {
	switch {
	case record.Status == entity.StatusSubmitted && record.SubmittedAt != nil:
		return *record.SubmittedAt
	case record.Status == entity.StatusApproved && record.ApprovedAt != nil:
		return *record.ApprovedAt
	default:
		return s.engine.Now()
	}
}

func (s *approvalServiceImpl) activeCodes(ctx context.Context) ([]entity.ApplicationCode, error) {
	codes, err := s.codeRepo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list application codes: %w", err)
	}
	values := make([]entity.ApplicationCode, 0, len(codes))
	for _, c := range codes {
		values = append(values, *c)
	}
	return values, nil
}

func (s *approvalServiceImpl) emit(ctx context.Context, eventType event.Type, record *entity.ApprovalRecord, previous entity.Status, actorID string) {
	if s.dispatcher == nil || eventType == "" {
		return
	}

	evt := event.NewEvent(eventType, record.ID, map[string]interface{}{
		event.KeyStatus:         string(record.Status),
		event.KeyPreviousStatus: string(previous),
		event.KeyApplicantID:    record.ApplicantID,
		event.KeyActorID:        actorID,
		event.KeyTitle:          record.Title(),
		event.KeyRemarks:        record.Remarks,
	})
	s.dispatcher.DispatchAsync(ctx, evt)
}

func actionFor(target entity.Status) string {
	switch target {
	case entity.StatusSubmitted:
		return entity.ActionSubmit
	case entity.StatusApproved:
		return entity.ActionApprove
	case entity.StatusRejected:
		return entity.ActionReject
	case entity.StatusReturned:
		return entity.ActionReturn
	default:
		return string(target)
	}
}

func eventFor(status entity.Status) event.Type {
	switch status {
	case entity.StatusSubmitted:
		return event.TypeApprovalSubmitted
	case entity.StatusApproved:
		return event.TypeApprovalApproved
	case entity.StatusRejected:
		return event.TypeApprovalRejected
	case entity.StatusReturned:
		return event.TypeApprovalReturned
	default:
		return ""
	}
}
