package state

import (
	"encoding/json"
	"errors"
)

// SerializedState is a JSON document held by a store.
type SerializedState []byte

var (
	ErrExists   = errors.New("state file already exists")
	ErrNotFound = errors.New("state file does not exist")
)

// Schema ties a store to one document shape. Implementations validate every
// document the store accepts, including version-dependent validation when
// the document carries its own schema version.
type Schema interface {
	Name() string
	EmptyState() (SerializedState, error)
	ValidateState(state SerializedState) error
}

type TransitionType string

// Transition is one validated mutation of a stored document, expressed as
// an RFC 6902 patch over the old state.
type Transition interface {
	// Type returns a string constant identifying the type of state transition.
	Type() TransitionType

	// Patch takes the old state and returns a JSON patch to apply to the old
	// state to get the new state.
	Patch(oldState SerializedState) (SerializedState, error)

	// Validate checks that the transition is valid given the old state.
	Validate(oldState SerializedState) error
}

// TransitionWrapper records an applied transition for logging.
type TransitionWrapper struct {
	Type       TransitionType `json:"type"`
	Patch      []byte         `json:"patch"`
	Transition []byte         `json:"transition"`
}

func WrapTransition(t Transition, patch []byte) (*TransitionWrapper, error) {
	transition, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}

	return &TransitionWrapper{
		Type:       t.Type(),
		Patch:      patch,
		Transition: transition,
	}, nil
}

// Client is a handle on one persisted document.
type Client interface {
	ProposeTransitions(transitions []Transition) (SerializedState, error)
	Bytes() SerializedState
	Path() string
}
