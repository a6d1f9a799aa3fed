package checkout

import (
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

// State is a step of the order placement transaction.
type State string

const (
	StateStarted          State = "started"
	StateAddressRecorded  State = "address_recorded"
	StateTotalComputed    State = "total_computed"
	StateOrderCreated     State = "order_created"
	StateItemsRecorded    State = "items_recorded"
	StateCartCleared      State = "cart_cleared"
	StatePaymentInitiated State = "payment_initiated"
	StateCommitted        State = "committed"
	StateAborted          State = "aborted"
)

// forward lists the only state each non-terminal state may advance to.
var forward = map[State]State{
	StateStarted:          StateAddressRecorded,
	StateAddressRecorded:  StateTotalComputed,
	StateTotalComputed:    StateOrderCreated,
	StateOrderCreated:     StateItemsRecorded,
	StateItemsRecorded:    StateCartCleared,
	StateCartCleared:      StatePaymentInitiated,
	StatePaymentInitiated: StateCommitted,
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}

// Machine tracks one checkout through its states. It is not safe for
// concurrent use; each request owns its own machine.
type Machine struct {
	current State
	reached State
}

// NewMachine returns a machine in StateStarted.
func NewMachine() *Machine {
	return &Machine{current: StateStarted, reached: StateStarted}
}

// Current returns the state the machine is in.
func (m *Machine) Current() State {
	return m.current
}

// Reached returns the last non-aborted state, which is the step a failure
// happened after.
func (m *Machine) Reached() State {
	return m.reached
}

// Advance moves to next if it is the single allowed successor.
func (m *Machine) Advance(next State) error {
	allowed, ok := forward[m.current]
	if !ok || allowed != next {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "illegal checkout transition").
			WithDetails(map[string]any{"from": m.current, "to": next})
	}
	m.current = next
	m.reached = next
	return nil
}

// Abort moves any non-terminal machine to StateAborted.
func (m *Machine) Abort() error {
	if m.current.Terminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already finished").
			WithDetails(map[string]any{"from": m.current, "to": StateAborted})
	}
	m.current = StateAborted
	return nil
}
