package workflow

import (
	"errors"
	"fmt"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	domainwf "github.com/djishijima/hellbuild-v3/internal/domain/workflow"
)

var (
	// ErrMissingApprover is returned when approving or rejecting without an approver id
	ErrMissingApprover = errors.New("approver id is required")

	// ErrMissingRemarks is returned when rejecting or returning without a reason
	ErrMissingRemarks = errors.New("remarks are required")

	// ErrMissingApplicant is returned when a record is created without an applicant id
	ErrMissingApplicant = errors.New("applicant id is required")

	// ErrInvalidRecord is returned for records that violate their own invariants
	ErrInvalidRecord = errors.New("invalid approval record")
)

// IllegalTransitionError reports a status change outside the lifecycle table
type IllegalTransitionError struct {
	RecordID string
	From     entity.Status
	To       entity.Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition for record %s: %s -> %s", e.RecordID, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error {
	return domainwf.ErrInvalidTransition
}
