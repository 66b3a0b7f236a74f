package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/opencad/dispatchd/internal/database"
	"github.com/opencad/dispatchd/internal/model"
)

func (s *EntityStore) createUnit(fields map[string]any) (*model.Ack, []*model.Notice, error) {
	number := strField(fields, "unit_number")
	if number == "" {
		return nil, nil, validationErr("unit_number is required")
	}

	unitType := strField(fields, "unit_type")
	if unitType == "" {
		return nil, nil, validationErr("unit_type is required")
	}

	status := strField(fields, "status")
	if status == "" {
		status = model.UnitStatusAvailable
	}

	if !validUnitStatus(status) {
		return nil, nil, validationErr("unknown unit status %q", status)
	}

	// Serialized with the insert by the mutation lock.
	if s.dbm.UnitQuery().Number(number).One() != nil {
		return nil, nil, conflictErr("unit with number %q already exists", number)
	}

	unit := &model.Unit{
		ID:         uuid.NewString(),
		UnitNumber: number,
		UnitType:   unitType,
		Status:     status,
		Location:   strField(fields, "location"),
		LastUpdate: time.Now(),
	}

	if err := s.dbm.Create(unit); err != nil {
		return nil, nil, storageErr(err)
	}

	ack := &model.Ack{ID: unit.ID, Message: "Unit created successfully"}

	return ack, []*model.Notice{
		{Kind: model.KindUnit, Action: model.ActionCreated, ID: unit.ID},
	}, nil
}

func (s *EntityStore) updateUnit(id string, fields map[string]any) (*model.Ack, []*model.Notice, error) {
	unit := s.dbm.UnitQuery().Id(id).One()
	if unit == nil {
		return nil, nil, &NotFoundError{Kind: model.KindUnit, ID: id}
	}

	// An assignment change is a paired two-record write and goes
	// through the assignment path, alone.
	if hasField(fields, "assigned_call_id") {
		if len(fields) != 1 {
			return nil, nil, validationErr("assigned_call_id must be the only field in an assignment update")
		}

		if callID := strField(fields, "assigned_call_id"); callID != "" {
			return s.assign(unit, callID)
		}

		return s.unassign(unit)
	}

	updates := map[string]any{"last_update": time.Now()}

	if hasField(fields, "unit_number") && strField(fields, "unit_number") != unit.UnitNumber {
		return nil, nil, validationErr("unit_number is immutable")
	}

	if hasField(fields, "status") {
		status := strField(fields, "status")

		if !validUnitStatus(status) {
			return nil, nil, validationErr("unknown unit status %q", status)
		}

		if err := checkUnitTransition(unit.Status, status); err != nil {
			return nil, nil, err
		}

		updates["status"] = status
	}

	if hasField(fields, "location") {
		updates["location"] = strField(fields, "location")
	}

	if hasField(fields, "unit_type") {
		if t := strField(fields, "unit_type"); t != "" {
			updates["unit_type"] = t
		}
	}

	if err := s.dbm.UnitQuery().Id(id).Update(updates); err != nil {
		return nil, nil, storageErr(err)
	}

	ack := &model.Ack{ID: id, Message: "Unit updated successfully"}

	return ack, []*model.Notice{
		{Kind: model.KindUnit, Action: model.ActionUpdated, ID: id},
	}, nil
}

// deleteUnit removes the unit and clears the assigned_unit_id of any
// call referencing it, atomically, so no dangling reference is ever
// observable.
func (s *EntityStore) deleteUnit(id string) (*model.Ack, []*model.Notice, error) {
	unit := s.dbm.UnitQuery().Id(id).One()
	if unit == nil {
		return nil, nil, &NotFoundError{Kind: model.KindUnit, ID: id}
	}

	calls := s.dbm.CallQuery().AssignedUnit(id).Get()

	err := s.dbm.WithTx(func(tx *database.DatabaseManager) error {
		for _, c := range calls {
			if err := tx.CallQuery().Id(c.ID).Update(map[string]any{"assigned_unit_id": nil}); err != nil {
				return err
			}
		}

		return tx.UnitQuery().Id(id).Delete().Error
	})
	if err != nil {
		return nil, nil, storageErr(err)
	}

	notices := []*model.Notice{
		{Kind: model.KindUnit, Action: model.ActionDeleted, ID: id},
	}

	for _, c := range calls {
		notices = append(notices, &model.Notice{Kind: model.KindCall, Action: model.ActionUpdated, ID: c.ID})
	}

	ack := &model.Ack{ID: id, Message: "Unit deleted successfully"}

	return ack, notices, nil
}
