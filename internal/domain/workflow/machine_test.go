package workflow

import (
	"context"
	"errors"
	"testing"
)

var errNoApprover = errors.New("approver required")

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StateSubmitted, false},
		{StateReturned, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"draft", StateDraft, true},
		{"returned", StateReturned, true},
		{"legacy pending", State("pending"), false},
		{"uppercase", State("DRAFT"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerReturn.String(); got != "RETURN" {
		t.Errorf("Trigger.String() = %v, want %v", got, "RETURN")
	}
}

func TestBuilder_ConfigureReturnsSameConfig(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateDraft)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}
	if config2 := builder.Configure(StateDraft); config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanics(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"invalid state", State("INVALID")},
		{"terminal state", StateApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Configure(%v) should panic", tt.state)
				}
			}()
			NewBuilder().Configure(tt.state)
		})
	}
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	NewBuilder().Build(State("INVALID"))
}

func TestStateConfiguration_Permit(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	machine := builder.Build(StateDraft)

	if !machine.CanFire(TriggerSubmit) {
		t.Error("CanFire() should return true for permitted trigger")
	}
	if err := machine.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine.State() != StateSubmitted {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateSubmitted)
	}
}

func TestStateConfiguration_PermitIf_GuardPasses(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context, args ...interface{}) error {
			if len(args) == 0 || args[0] == "" {
				return errNoApprover
			}
			return nil
		})

	machine := builder.Build(StateSubmitted)

	if err := machine.Fire(context.Background(), TriggerApprove, "u-2"); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine.State() != StateApproved {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateApproved)
	}
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context, args ...interface{}) error {
			return errNoApprover
		})

	machine := builder.Build(StateSubmitted)

	err := machine.Fire(context.Background(), TriggerApprove)
	if err == nil {
		t.Fatal("Fire() should fail when guard fails")
	}
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if !errors.Is(err, errNoApprover) {
		t.Errorf("Fire() error = %v, want guard error %v", err, errNoApprover)
	}
	if machine.State() != StateSubmitted {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateSubmitted, machine.State())
	}
}

func TestStateConfiguration_PermitIf_FirstPassingGuardWins(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context, args ...interface{}) error {
			return errNoApprover
		}).
		Permit(TriggerApprove, StateRejected)

	machine := builder.Build(StateSubmitted)

	if err := machine.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateRejected {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateRejected)
	}
}

func TestStateConfiguration_PermitPanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	NewBuilder().Configure(StateDraft).Permit(TriggerSubmit, State("INVALID"))
}

func TestStateMachine_Fire_InvalidTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	machine := builder.Build(StateDraft)

	err := machine.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if machine.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, machine.State())
	}
}

func TestStateMachine_Fire_NoConfiguration(t *testing.T) {
	machine := NewBuilder().Build(StateApproved)

	err := machine.Fire(context.Background(), TriggerSubmit)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestStateMachine_Destination(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		Permit(TriggerReturn, StateReturned)

	machine := builder.Build(StateSubmitted)

	if to, ok := machine.Destination(TriggerReturn); !ok || to != StateReturned {
		t.Errorf("Destination(RETURN) = %v, %v; want %v, true", to, ok, StateReturned)
	}
	if _, ok := machine.Destination(TriggerSubmit); ok {
		t.Error("Destination(SUBMIT) should not be configured")
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		Permit(TriggerReturn, StateReturned).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	triggers := builder.Build(StateSubmitted).PermittedTriggers()

	want := []Trigger{TriggerApprove, TriggerReject, TriggerReturn}
	if len(triggers) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %v", triggers, want)
	}
	for i := range want {
		if triggers[i] != want[i] {
			t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, triggers[i], want[i])
		}
	}

	if got := NewBuilder().Build(StateDraft).PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 0", len(got))
	}
}

func TestStateMachine_Independence(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	machine1 := builder.Build(StateDraft)
	machine2 := builder.Build(StateDraft)

	// Configured after build; existing machines keep their snapshot
	builder.Configure(StateSubmitted).Permit(TriggerApprove, StateApproved)

	if err := machine1.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine2.State() != StateDraft {
		t.Errorf("machine2 state = %v, want %v (machines should be independent)", machine2.State(), StateDraft)
	}
	if machine1.CanFire(TriggerApprove) {
		t.Error("machine1 should not see configuration added after Build()")
	}
}
