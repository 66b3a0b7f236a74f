package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencad/dispatchd/internal/model"
)

func assignUnit(s *EntityStore, unitID, callID string) error {
	_, err := s.Apply(&Mutation{Kind: model.KindUnit, Op: OpUpdate, ID: unitID, Fields: map[string]any{
		"assigned_call_id": callID,
	}})

	return err
}

func getUnit(t *testing.T, s *EntityStore, id string) *model.UnitDTO {
	t.Helper()

	items, err := s.List(model.KindUnit)
	require.NoError(t, err)

	for _, u := range items.([]*model.UnitDTO) {
		if u.ID == id {
			return u
		}
	}

	return nil
}

func getCall(t *testing.T, s *EntityStore, id string) *model.CallDTO {
	t.Helper()

	items, err := s.List(model.KindCall)
	require.NoError(t, err)

	for _, c := range items.([]*model.CallDTO) {
		if c.ID == id {
			return c
		}
	}

	return nil
}

func TestAssignMutualConsistency(t *testing.T) {
	s, _ := getTestStore(t)

	unitID := createUnit(t, s, "M-12", "Medic")
	callAck := createCall(t, s, map[string]any{
		"priority":  model.PriorityHigh,
		"call_type": "MVA",
		"location":  "5th&Main",
	})

	require.NoError(t, assignUnit(s, unitID, callAck.ID))

	unit := getUnit(t, s, unitID)
	call := getCall(t, s, callAck.ID)

	require.NotNil(t, unit.AssignedCallID)
	require.Equal(t, callAck.ID, *unit.AssignedCallID)
	require.NotNil(t, call.AssignedUnitID)
	require.Equal(t, unitID, *call.AssignedUnitID)
}

func TestAssignConflicts(t *testing.T) {
	s, _ := getTestStore(t)

	unit1 := createUnit(t, s, "M-1", "Medic")
	unit2 := createUnit(t, s, "M-2", "Medic")
	call1 := createCall(t, s, map[string]any{"call_type": "MVA", "location": "A"})
	call2 := createCall(t, s, map[string]any{"call_type": "Fire", "location": "B"})

	require.NoError(t, assignUnit(s, unit1, call1.ID))

	// busy unit cannot take a second call
	err := assignUnit(s, unit1, call2.ID)
	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)

	// covered call cannot take a second unit
	err = assignUnit(s, unit2, call1.ID)
	require.ErrorAs(t, err, &cErr)

	// re-assigning the same pair is a no-op, not a conflict
	require.NoError(t, assignUnit(s, unit1, call1.ID))
}

func TestAssignMissingCall(t *testing.T) {
	s, _ := getTestStore(t)

	unitID := createUnit(t, s, "M-1", "Medic")

	err := assignUnit(s, unitID, "no-such-call")

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	require.Equal(t, model.KindCall, nfErr.Kind)
}

func TestAssignClosedCall(t *testing.T) {
	s, _ := getTestStore(t)

	unitID := createUnit(t, s, "M-1", "Medic")
	callAck := createCall(t, s, map[string]any{
		"call_type": "MVA",
		"location":  "A",
		"status":    model.CallStatusClosed,
	})

	err := assignUnit(s, unitID, callAck.ID)

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
}

func TestUnassignClearsBothSides(t *testing.T) {
	s, _ := getTestStore(t)

	unitID := createUnit(t, s, "M-1", "Medic")
	callAck := createCall(t, s, map[string]any{"call_type": "MVA", "location": "A"})

	require.NoError(t, assignUnit(s, unitID, callAck.ID))
	require.NoError(t, assignUnit(s, unitID, ""))

	require.Nil(t, getUnit(t, s, unitID).AssignedCallID)
	require.Nil(t, getCall(t, s, callAck.ID).AssignedUnitID)
}

func TestDeleteCallCascade(t *testing.T) {
	s, events := getTestStore(t)

	unitID := createUnit(t, s, "M-12", "Medic")
	callAck := createCall(t, s, map[string]any{"call_type": "MVA", "location": "A"})

	require.NoError(t, assignUnit(s, unitID, callAck.ID))

	rec := &recorder{}
	events.Subscribe("rec", rec.record)

	_, err := s.Apply(&Mutation{Kind: model.KindCall, Op: OpDelete, ID: callAck.ID})
	require.NoError(t, err)

	require.Nil(t, getUnit(t, s, unitID).AssignedCallID)
	require.Nil(t, getCall(t, s, callAck.ID))

	require.Equal(t, []string{
		"call:deleted:" + callAck.ID,
		"unit:updated:" + unitID,
	}, rec.all())
}

func TestDeleteUnitCascade(t *testing.T) {
	s, _ := getTestStore(t)

	unitID := createUnit(t, s, "M-12", "Medic")
	callAck := createCall(t, s, map[string]any{"call_type": "MVA", "location": "A"})

	require.NoError(t, assignUnit(s, unitID, callAck.ID))

	_, err := s.Apply(&Mutation{Kind: model.KindUnit, Op: OpDelete, ID: unitID})
	require.NoError(t, err)

	require.Nil(t, getUnit(t, s, unitID))
	require.Nil(t, getCall(t, s, callAck.ID).AssignedUnitID)
}

func TestAssignNoticeOrder(t *testing.T) {
	s, events := getTestStore(t)

	unitID := createUnit(t, s, "M-12", "Medic")
	callAck := createCall(t, s, map[string]any{"call_type": "MVA", "location": "A"})

	rec := &recorder{}
	events.Subscribe("rec", rec.record)

	require.NoError(t, assignUnit(s, unitID, callAck.ID))

	require.Equal(t, []string{
		"unit:updated:" + unitID,
		"call:updated:" + callAck.ID,
	}, rec.all())
}

func TestAssignmentMustBeAlone(t *testing.T) {
	s, _ := getTestStore(t)

	unitID := createUnit(t, s, "M-12", "Medic")
	callAck := createCall(t, s, map[string]any{"call_type": "MVA", "location": "A"})

	_, err := s.Apply(&Mutation{Kind: model.KindUnit, Op: OpUpdate, ID: unitID, Fields: map[string]any{
		"assigned_call_id": callAck.ID,
		"location":         "en route",
	}})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}
