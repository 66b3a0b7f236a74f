package store

import (
	"time"

	"github.com/opencad/dispatchd/internal/database"
	"github.com/opencad/dispatchd/internal/model"
)

// assign links a unit and a call mutually. Both sides are written in
// one transaction; callers hold the mutation lock, so the conflict
// checks and the writes form one indivisible step.
func (s *EntityStore) assign(unit *model.Unit, callID string) (*model.Ack, []*model.Notice, error) {
	call := s.dbm.CallQuery().Id(callID).One()
	if call == nil {
		return nil, nil, &NotFoundError{Kind: model.KindCall, ID: callID}
	}

	if call.Status == model.CallStatusClosed {
		return nil, nil, &InvalidTransitionError{Kind: model.KindCall, From: call.Status, To: model.CallStatusDispatched}
	}

	if unit.AssignedCallID != nil && *unit.AssignedCallID != callID {
		return nil, nil, conflictErr("unit %s is already assigned to call %s, unassign first", unit.UnitNumber, *unit.AssignedCallID)
	}

	if call.AssignedUnitID != nil && *call.AssignedUnitID != unit.ID {
		return nil, nil, conflictErr("call %s is already assigned to unit %s, unassign first", call.CallNumber, *call.AssignedUnitID)
	}

	err := s.dbm.WithTx(func(tx *database.DatabaseManager) error {
		unitUpdates := map[string]any{
			"assigned_call_id": callID,
			"last_update":      time.Now(),
		}

		if err := tx.UnitQuery().Id(unit.ID).Update(unitUpdates); err != nil {
			return err
		}

		return tx.CallQuery().Id(callID).Update(map[string]any{"assigned_unit_id": unit.ID})
	})
	if err != nil {
		return nil, nil, storageErr(err)
	}

	ack := &model.Ack{ID: unit.ID, Message: "Unit assigned successfully"}

	return ack, []*model.Notice{
		{Kind: model.KindUnit, Action: model.ActionUpdated, ID: unit.ID},
		{Kind: model.KindCall, Action: model.ActionUpdated, ID: callID},
	}, nil
}

// unassign clears both sides of the unit's active link in one
// transaction. The call side is cleared by looking up every call that
// points at the unit, so the pair can never drift apart.
func (s *EntityStore) unassign(unit *model.Unit) (*model.Ack, []*model.Notice, error) {
	calls := s.dbm.CallQuery().AssignedUnit(unit.ID).Get()

	err := s.dbm.WithTx(func(tx *database.DatabaseManager) error {
		unitUpdates := map[string]any{
			"assigned_call_id": nil,
			"last_update":      time.Now(),
		}

		if err := tx.UnitQuery().Id(unit.ID).Update(unitUpdates); err != nil {
			return err
		}

		for _, c := range calls {
			if err := tx.CallQuery().Id(c.ID).Update(map[string]any{"assigned_unit_id": nil}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, storageErr(err)
	}

	notices := []*model.Notice{
		{Kind: model.KindUnit, Action: model.ActionUpdated, ID: unit.ID},
	}

	for _, c := range calls {
		notices = append(notices, &model.Notice{Kind: model.KindCall, Action: model.ActionUpdated, ID: c.ID})
	}

	ack := &model.Ack{ID: unit.ID, Message: "Unit unassigned successfully"}

	return ack, notices, nil
}
