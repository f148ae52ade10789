package state

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ProposeTransitions statelessly generates new state from old + transitions.
// Every transition validates against the state produced by its predecessor,
// and the final document must satisfy the schema.
func ProposeTransitions(schema Schema, old SerializedState, transitions []Transition) (SerializedState, []*TransitionWrapper, error) {
	wrappers := make([]*TransitionWrapper, 0, len(transitions))
	tmp := old

	for _, t := range transitions {
		err := t.Validate(tmp)
		if err != nil {
			return nil, nil, fmt.Errorf("transition validation failed: %s", err)
		}

		patch, err := t.Patch(tmp)
		if err != nil {
			return nil, nil, err
		}

		tmp, err = applyPatch(schema, tmp, patch)
		if err != nil {
			return nil, nil, err
		}

		wrapped, err := WrapTransition(t, patch)
		if err != nil {
			return nil, nil, err
		}

		wrappers = append(wrappers, wrapped)
	}

	return tmp, wrappers, nil
}

func applyPatch(schema Schema, state SerializedState, patchJSON []byte) (SerializedState, error) {
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON patch: %s", err)
	}

	updated, err := patch.Apply(state)
	if err != nil {
		return nil, fmt.Errorf("error applying patch to current state: %s", err)
	}

	err = schema.ValidateState(updated)
	if err != nil {
		return nil, fmt.Errorf("error validating updated state: %s", err)
	}
	return updated, nil
}
