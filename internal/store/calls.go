package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/opencad/dispatchd/internal/database"
	"github.com/opencad/dispatchd/internal/model"
)

func (s *EntityStore) createCall(fields map[string]any) (*model.Ack, []*model.Notice, error) {
	callType := strField(fields, "call_type")
	if callType == "" {
		return nil, nil, validationErr("call_type is required")
	}

	location := strField(fields, "location")
	if location == "" {
		return nil, nil, validationErr("location is required")
	}

	priority := strField(fields, "priority")
	if priority == "" {
		priority = model.PriorityMedium
	}

	if !validPriority(priority) {
		return nil, nil, validationErr("unknown priority %q", priority)
	}

	status := strField(fields, "status")
	if status == "" {
		status = model.CallStatusNew
	}

	if !validCallStatus(status) {
		return nil, nil, validationErr("unknown call status %q", status)
	}

	now := time.Now()
	number := model.NewCallNumber(now)

	// Numbers are never reused; regenerate on the rare suffix clash.
	for s.dbm.CallQuery().Number(number).One() != nil {
		number = model.NewCallNumber(now)
	}

	call := &model.Call{
		ID:            uuid.NewString(),
		CallNumber:    number,
		Priority:      priority,
		CallType:      callType,
		Location:      location,
		Description:   strField(fields, "description"),
		Status:        status,
		ReporterName:  strField(fields, "reporter_name"),
		ReporterPhone: strField(fields, "reporter_phone"),
	}

	if err := s.dbm.Create(call); err != nil {
		return nil, nil, storageErr(err)
	}

	ack := &model.Ack{ID: call.ID, CallNumber: number, Message: "Call created successfully"}

	return ack, []*model.Notice{
		{Kind: model.KindCall, Action: model.ActionCreated, ID: call.ID},
	}, nil
}

func (s *EntityStore) updateCall(id string, fields map[string]any, reopen bool) (*model.Ack, []*model.Notice, error) {
	call := s.dbm.CallQuery().Id(id).One()
	if call == nil {
		return nil, nil, &NotFoundError{Kind: model.KindCall, ID: id}
	}

	if hasField(fields, "assigned_unit_id") {
		return nil, nil, validationErr("assignment is driven from the unit side, update the unit's assigned_call_id")
	}

	status := strField(fields, "status")

	// A closed call accepts no mutation except the explicit reopen.
	if call.Status == model.CallStatusClosed && !reopen {
		to := status
		if to == "" {
			to = call.Status
		}

		return nil, nil, &InvalidTransitionError{Kind: model.KindCall, From: call.Status, To: to}
	}

	updates := make(map[string]any)

	if reopen && status == "" {
		status = model.CallStatusNew
	}

	if status != "" {
		if !validCallStatus(status) {
			return nil, nil, validationErr("unknown call status %q", status)
		}

		if err := checkCallTransition(call.Status, status, reopen); err != nil {
			return nil, nil, err
		}

		updates["status"] = status
	}

	if hasField(fields, "call_number") && strField(fields, "call_number") != call.CallNumber {
		return nil, nil, validationErr("call_number is immutable")
	}

	if hasField(fields, "priority") {
		p := strField(fields, "priority")

		if !validPriority(p) {
			return nil, nil, validationErr("unknown priority %q", p)
		}

		updates["priority"] = p
	}

	if hasField(fields, "location") {
		if l := strField(fields, "location"); l != "" {
			updates["location"] = l
		} else {
			return nil, nil, validationErr("location must not be empty")
		}
	}

	if hasField(fields, "call_type") {
		if t := strField(fields, "call_type"); t != "" {
			updates["call_type"] = t
		}
	}

	if hasField(fields, "description") {
		updates["description"] = strField(fields, "description")
	}

	if hasField(fields, "reporter_name") {
		updates["reporter_name"] = strField(fields, "reporter_name")
	}

	if hasField(fields, "reporter_phone") {
		updates["reporter_phone"] = strField(fields, "reporter_phone")
	}

	if len(updates) == 0 {
		updates["updated_at"] = time.Now()
	}

	if err := s.dbm.CallQuery().Id(id).Update(updates); err != nil {
		return nil, nil, storageErr(err)
	}

	ack := &model.Ack{ID: id, Message: "Call updated successfully"}

	return ack, []*model.Notice{
		{Kind: model.KindCall, Action: model.ActionUpdated, ID: id},
	}, nil
}

// deleteCall removes the call and clears the assigned_call_id of any
// unit referencing it, atomically.
func (s *EntityStore) deleteCall(id string) (*model.Ack, []*model.Notice, error) {
	call := s.dbm.CallQuery().Id(id).One()
	if call == nil {
		return nil, nil, &NotFoundError{Kind: model.KindCall, ID: id}
	}

	units := s.dbm.UnitQuery().AssignedCall(id).Get()

	err := s.dbm.WithTx(func(tx *database.DatabaseManager) error {
		for _, u := range units {
			updates := map[string]any{
				"assigned_call_id": nil,
				"last_update":      time.Now(),
			}

			if err := tx.UnitQuery().Id(u.ID).Update(updates); err != nil {
				return err
			}
		}

		return tx.CallQuery().Id(id).Delete().Error
	})
	if err != nil {
		return nil, nil, storageErr(err)
	}

	notices := []*model.Notice{
		{Kind: model.KindCall, Action: model.ActionDeleted, ID: id},
	}

	for _, u := range units {
		notices = append(notices, &model.Notice{Kind: model.KindUnit, Action: model.ActionUpdated, ID: u.ID})
	}

	ack := &model.Ack{ID: id, Message: "Call deleted successfully"}

	return ack, notices, nil
}
