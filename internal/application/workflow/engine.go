package workflow

import (
	"context"
	"time"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/domain/validation"
)

// TransitionContext carries the actor data a transition may need
type TransitionContext struct {
	ApproverID string
	Remarks    string

	// FormData amends the payload on (re)submission. Nil keeps the stored form.
	FormData validation.RawPayload
}

// Engine creates approval records and moves them through their lifecycle.
// It never persists anything: every call returns a new record value and
// leaves its inputs untouched.
type Engine interface {
	// CreateDraft creates a Draft record. codes is the current application code set.
	CreateDraft(ctx context.Context, codes []entity.ApplicationCode, applicantID, codeID string, raw validation.RawPayload) (*entity.ApprovalRecord, error)

	// SubmitNew creates a record directly in Submitted
	SubmitNew(ctx context.Context, codes []entity.ApplicationCode, applicantID, codeID string, raw validation.RawPayload) (*entity.ApprovalRecord, error)

	// Submit moves a Draft or Returned record to Submitted, optionally with an amended payload
	Submit(ctx context.Context, record *entity.ApprovalRecord, raw validation.RawPayload) (*entity.ApprovalRecord, error)

	// Transition moves a record to target
	Transition(ctx context.Context, record *entity.ApprovalRecord, target entity.Status, tc TransitionContext) (*entity.ApprovalRecord, error)

	// PermittedTargets returns the statuses reachable from the record's current status
	PermittedTargets(record *entity.ApprovalRecord) []entity.Status

	// Now returns the time of the engine's clock
	Now() time.Time
}
