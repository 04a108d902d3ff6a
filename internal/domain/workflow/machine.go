package workflow

import "context"

// StateMachine represents a state machine that tracks current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is configured for the current state.
	// Guards are not evaluated.
	CanFire(trigger Trigger) bool

	// Fire evaluates the guards of the trigger with args and moves to the target
	// state of the first transition whose guard passes
	Fire(ctx context.Context, trigger Trigger, args ...interface{}) error

	// Destination returns the state a trigger would lead to from the current state
	Destination(trigger Trigger) (State, bool)

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []Trigger
}
