package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/domain/validation"
	domainwf "github.com/djishijima/hellbuild-v3/internal/domain/workflow"
)

// transitionInput is the single guard argument. requireValidForm stores the
// normalized form on it.
type transitionInput struct {
	category entity.Category
	raw      validation.RawPayload
	tc       TransitionContext
	form     entity.FormData
}

// BuildApprovalStateMachine creates a state machine configured for the approval lifecycle
func BuildApprovalStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// DRAFT state transitions
	builder.Configure(domainwf.StateDraft).
		PermitIf(domainwf.TriggerSubmit, domainwf.StateSubmitted, requireValidForm)

	// SUBMITTED state transitions
	builder.Configure(domainwf.StateSubmitted).
		PermitIf(domainwf.TriggerApprove, domainwf.StateApproved, requireApprover).
		PermitIf(domainwf.TriggerReject, domainwf.StateRejected, all(requireApprover, requireRemarks)).
		PermitIf(domainwf.TriggerReturn, domainwf.StateReturned, requireRemarks)

	// RETURNED state transitions
	builder.Configure(domainwf.StateReturned).
		PermitIf(domainwf.TriggerSubmit, domainwf.StateSubmitted, requireValidForm)

	// APPROVED and REJECTED are terminal states - no outgoing transitions

	return builder.Build(initialState)
}

// triggerFor maps a requested status onto the trigger that reaches it
func triggerFor(target entity.Status) (domainwf.Trigger, bool) {
	switch target {
	case entity.StatusSubmitted:
		return domainwf.TriggerSubmit, true
	case entity.StatusApproved:
		return domainwf.TriggerApprove, true
	case entity.StatusRejected:
		return domainwf.TriggerReject, true
	case entity.StatusReturned:
		return domainwf.TriggerReturn, true
	default:
		return "", false
	}
}

func inputFrom(args []interface{}) (*transitionInput, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected one transition input, got %d arguments", len(args))
	}
	in, ok := args[0].(*transitionInput)
	if !ok {
		return nil, fmt.Errorf("unexpected transition input %T", args[0])
	}
	return in, nil
}

func requireValidForm(ctx context.Context, args ...interface{}) error {
	in, err := inputFrom(args)
	if err != nil {
		return err
	}
	form, err := validation.Validate(in.category, in.raw)
	if err != nil {
		return err
	}
	in.form = form
	return nil
}

func requireApprover(ctx context.Context, args ...interface{}) error {
	in, err := inputFrom(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.tc.ApproverID) == "" {
		return ErrMissingApprover
	}
	return nil
}

func requireRemarks(ctx context.Context, args ...interface{}) error {
	in, err := inputFrom(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.tc.Remarks) == "" {
		return ErrMissingRemarks
	}
	return nil
}

func all(guards ...domainwf.GuardFunc) domainwf.GuardFunc {
	return func(ctx context.Context, args ...interface{}) error {
		for _, g := range guards {
			if err := g(ctx, args...); err != nil {
				return err
			}
		}
		return nil
	}
}
