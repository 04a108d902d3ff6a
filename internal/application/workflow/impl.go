package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/domain/schema"
	"github.com/djishijima/hellbuild-v3/internal/domain/validation"
	domainwf "github.com/djishijima/hellbuild-v3/internal/domain/workflow"
)

// Clock supplies the time used for lifecycle stamps
type Clock func() time.Time

// IDGenerator supplies ids for new records
type IDGenerator func() string

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	now   Clock
	newID IDGenerator
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithClock sets the clock used for createdAt, submittedAt and approvedAt
func WithClock(clock Clock) EngineOption {
	return func(e *engineImpl) {
		e.now = clock
	}
}

// WithIDGenerator sets the record id generator
func WithIDGenerator(gen IDGenerator) EngineOption {
	return func(e *engineImpl) {
		e.newID = gen
	}
}

// NewEngine creates a new workflow engine
func NewEngine(opts ...EngineOption) Engine {
	e := &engineImpl{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Now returns the time of the engine's clock
func (e *engineImpl) Now() time.Time {
	return e.now()
}

// CreateDraft creates a Draft record
func (e *engineImpl) CreateDraft(ctx context.Context, codes []entity.ApplicationCode, applicantID, codeID string, raw validation.RawPayload) (*entity.ApprovalRecord, error) {
	category, err := e.resolve(codes, applicantID, codeID)
	if err != nil {
		return nil, err
	}

	form, err := validation.ValidateDraft(category, raw)
	if err != nil {
		return nil, err
	}

	return &entity.ApprovalRecord{
		ID:                e.newID(),
		ApplicantID:       applicantID,
		ApplicationCodeID: codeID,
		FormData:          form,
		Status:            entity.StatusDraft,
		CreatedAt:         e.now(),
	}, nil
}

// SubmitNew creates a record directly in Submitted
func (e *engineImpl) SubmitNew(ctx context.Context, codes []entity.ApplicationCode, applicantID, codeID string, raw validation.RawPayload) (*entity.ApprovalRecord, error) {
	category, err := e.resolve(codes, applicantID, codeID)
	if err != nil {
		return nil, err
	}

	form, err := validation.Validate(category, raw)
	if err != nil {
		return nil, err
	}

	now := e.now()
	return &entity.ApprovalRecord{
		ID:                e.newID(),
		ApplicantID:       applicantID,
		ApplicationCodeID: codeID,
		FormData:          form,
		Status:            entity.StatusSubmitted,
		SubmittedAt:       &now,
		CreatedAt:         now,
	}, nil
}

// Submit moves a Draft or Returned record to Submitted
func (e *engineImpl) Submit(ctx context.Context, record *entity.ApprovalRecord, raw validation.RawPayload) (*entity.ApprovalRecord, error) {
	return e.Transition(ctx, record, entity.StatusSubmitted, TransitionContext{FormData: raw})
}

// Transition moves a record to target, applying the stamps of that transition
func (e *engineImpl) Transition(ctx context.Context, record *entity.ApprovalRecord, target entity.Status, tc TransitionContext) (*entity.ApprovalRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if record.FormData == nil {
		return nil, fmt.Errorf("%w: record %s has no form data", ErrInvalidRecord, record.ID)
	}

	from := domainwf.State(record.Status)
	if !from.IsValid() {
		return nil, fmt.Errorf("%w: record %s has unknown status %q", ErrInvalidRecord, record.ID, record.Status)
	}

	illegal := &IllegalTransitionError{RecordID: record.ID, From: record.Status, To: target}

	trigger, ok := triggerFor(target)
	if !ok {
		return nil, illegal
	}

	machine := BuildApprovalStateMachine(from)
	if to, ok := machine.Destination(trigger); !ok || to != domainwf.State(target) {
		return nil, illegal
	}

	in := &transitionInput{
		category: record.Category(),
		raw:      tc.FormData,
		tc:       tc,
	}
	if in.raw == nil {
		in.raw = record.FormData.Payload()
	}

	if err := machine.Fire(ctx, trigger, in); err != nil {
		return nil, err
	}

	next := record.Clone()
	next.Status = entity.Status(machine.State())
	now := e.now()

	switch trigger {
	case domainwf.TriggerSubmit:
		next.FormData = in.form
		next.SubmittedAt = &now
	case domainwf.TriggerApprove:
		next.ApproverID = strings.TrimSpace(tc.ApproverID)
		next.ApprovedAt = &now
	case domainwf.TriggerReject:
		next.ApproverID = strings.TrimSpace(tc.ApproverID)
		next.Remarks = strings.TrimSpace(tc.Remarks)
	case domainwf.TriggerReturn:
		next.Remarks = strings.TrimSpace(tc.Remarks)
	}

	return next, nil
}

// PermittedTargets returns the statuses reachable from the record's current status
func (e *engineImpl) PermittedTargets(record *entity.ApprovalRecord) []entity.Status {
	if record == nil {
		return nil
	}
	state := domainwf.State(record.Status)
	if !state.IsValid() {
		return nil
	}

	machine := BuildApprovalStateMachine(state)
	var targets []entity.Status
	for _, trigger := range machine.PermittedTriggers() {
		if to, ok := machine.Destination(trigger); ok {
			targets = append(targets, entity.Status(to))
		}
	}
	return targets
}

func (e *engineImpl) resolve(codes []entity.ApplicationCode, applicantID, codeID string) (entity.Category, error) {
	if strings.TrimSpace(applicantID) == "" {
		return "", ErrMissingApplicant
	}

	category, err := schema.CategoryForCode(codes, codeID)
	if err != nil {
		return "", err
	}
	if _, err := schema.SchemaFor(category); err != nil {
		return "", err
	}
	return category, nil
}
