package service

import (
	"fmt"
	"slices"

	wizarderrors "slotbook/internal/wizard/errors"
)

type State string

const (
	StateFormEntry  State = "form_entry"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
	StateError      State = "error"
	StateDismissed  State = "dismissed"
)

// transitions lists every legal move. Anything absent is rejected.
var transitions = map[State][]State{
	StateFormEntry:  {StateValidating, StateDismissed},
	StateValidating: {StateSubmitting, StateError},
	StateSubmitting: {StateConfirmed, StateError},
	StateError:      {StateFormEntry, StateValidating, StateDismissed},
	StateConfirmed:  {StateDismissed},
	StateDismissed:  {},
}

func canTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

func (s State) Editable() bool {
	return s == StateFormEntry || s == StateError
}

func (s State) Closed() bool {
	return s == StateConfirmed || s == StateDismissed
}

func checkTransition(from, to State) error {
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", wizarderrors.ErrIllegalTransition, from, to)
	}
	return nil
}
