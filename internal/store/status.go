package store

import (
	"github.com/opencad/dispatchd/internal/model"
)

// Unit cycle: Available -> Dispatched -> EnRoute -> OnScene -> Available.
// OutOfService is reachable from every state but leads back to
// Available only.
var unitTransitions = map[string][]string{
	model.UnitStatusAvailable:    {model.UnitStatusDispatched, model.UnitStatusOutOfService},
	model.UnitStatusDispatched:   {model.UnitStatusEnRoute, model.UnitStatusOutOfService},
	model.UnitStatusEnRoute:      {model.UnitStatusOnScene, model.UnitStatusOutOfService},
	model.UnitStatusOnScene:      {model.UnitStatusAvailable, model.UnitStatusOutOfService},
	model.UnitStatusOutOfService: {model.UnitStatusAvailable},
}

// Calls move forward only. Closed is reachable from every live state
// and is terminal; leaving it requires the explicit reopen flag.
var callTransitions = map[string][]string{
	model.CallStatusNew:        {model.CallStatusDispatched, model.CallStatusClosed},
	model.CallStatusDispatched: {model.CallStatusInProgress, model.CallStatusClosed},
	model.CallStatusInProgress: {model.CallStatusClosed},
	model.CallStatusClosed:     {},
}

func validUnitStatus(s string) bool {
	_, ok := unitTransitions[s]

	return ok
}

func validCallStatus(s string) bool {
	_, ok := callTransitions[s]

	return ok
}

// checkUnitTransition validates a unit status change. A write that
// keeps the current status is not a transition and always passes.
func checkUnitTransition(from, to string) error {
	if from == to {
		return nil
	}

	for _, s := range unitTransitions[from] {
		if s == to {
			return nil
		}
	}

	return &InvalidTransitionError{Kind: model.KindUnit, From: from, To: to}
}

// checkCallTransition validates a call status change. A Closed call
// accepts a new status only with the reopen flag set.
func checkCallTransition(from, to string, reopen bool) error {
	if from == to {
		return nil
	}

	if from == model.CallStatusClosed {
		if reopen {
			return nil
		}

		return &InvalidTransitionError{Kind: model.KindCall, From: from, To: to}
	}

	for _, s := range callTransitions[from] {
		if s == to {
			return nil
		}
	}

	return &InvalidTransitionError{Kind: model.KindCall, From: from, To: to}
}
