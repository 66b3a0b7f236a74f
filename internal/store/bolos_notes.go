package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/opencad/dispatchd/internal/model"
)

const defaultCreator = "Dispatcher"

func (s *EntityStore) createBolo(fields map[string]any) (*model.Ack, []*model.Notice, error) {
	title := strField(fields, "title")
	if title == "" {
		return nil, nil, validationErr("title is required")
	}

	description := strField(fields, "description")
	if description == "" {
		return nil, nil, validationErr("description is required")
	}

	boloType := strField(fields, "bolo_type")
	if boloType == "" {
		return nil, nil, validationErr("bolo_type is required")
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
		status = model.BoloStatusActive
	}

	switch status {
	case model.BoloStatusActive, model.BoloStatusExpired, model.BoloStatusCancelled:
	default:
		return nil, nil, validationErr("unknown bolo status %q", status)
	}

	var expiresAt *time.Time

	if exp := strField(fields, "expires_at"); exp != "" {
		t, err := time.Parse(time.RFC3339, exp)
		if err != nil {
			return nil, nil, validationErr("expires_at must be RFC3339: %s", err.Error())
		}

		expiresAt = &t
	}

	createdBy := strField(fields, "created_by")
	if createdBy == "" {
		createdBy = defaultCreator
	}

	bolo := &model.Bolo{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		BoloType:    boloType,
		Priority:    priority,
		Status:      status,
		ExpiresAt:   expiresAt,
		CreatedBy:   createdBy,
	}

	if err := s.dbm.Create(bolo); err != nil {
		return nil, nil, storageErr(err)
	}

	ack := &model.Ack{ID: bolo.ID, Message: "BOLO created successfully"}

	return ack, []*model.Notice{
		{Kind: model.KindBolo, Action: model.ActionCreated, ID: bolo.ID},
	}, nil
}

func (s *EntityStore) deleteBolo(id string) (*model.Ack, []*model.Notice, error) {
	if s.dbm.BoloQuery().Id(id).One() == nil {
		return nil, nil, &NotFoundError{Kind: model.KindBolo, ID: id}
	}

	if err := s.dbm.BoloQuery().Id(id).Delete().Error; err != nil {
		return nil, nil, storageErr(err)
	}

	ack := &model.Ack{ID: id, Message: "BOLO deleted successfully"}

	return ack, []*model.Notice{
		{Kind: model.KindBolo, Action: model.ActionDeleted, ID: id},
	}, nil
}

func (s *EntityStore) createNote(fields map[string]any) (*model.Ack, []*model.Notice, error) {
	noteType := strField(fields, "note_type")
	if noteType == "" {
		return nil, nil, validationErr("note_type is required")
	}

	content := strField(fields, "content")
	if content == "" {
		return nil, nil, validationErr("content is required")
	}

	var callID, unitID *string

	if id := strField(fields, "call_id"); id != "" {
		if s.dbm.CallQuery().Id(id).One() == nil {
			return nil, nil, &NotFoundError{Kind: model.KindCall, ID: id}
		}

		callID = &id
	}

	if id := strField(fields, "unit_id"); id != "" {
		if s.dbm.UnitQuery().Id(id).One() == nil {
			return nil, nil, &NotFoundError{Kind: model.KindUnit, ID: id}
		}

		unitID = &id
	}

	createdBy := strField(fields, "created_by")
	if createdBy == "" {
		createdBy = defaultCreator
	}

	note := &model.Note{
		ID:        uuid.NewString(),
		CallID:    callID,
		UnitID:    unitID,
		NoteType:  noteType,
		Content:   content,
		CreatedBy: createdBy,
	}

	if err := s.dbm.Create(note); err != nil {
		return nil, nil, storageErr(err)
	}

	ack := &model.Ack{ID: note.ID, Message: "Note created successfully"}

	return ack, []*model.Notice{
		{Kind: model.KindNote, Action: model.ActionCreated, ID: note.ID},
	}, nil
}

func (s *EntityStore) deleteNote(id string) (*model.Ack, []*model.Notice, error) {
	if s.dbm.NoteQuery().Id(id).One() == nil {
		return nil, nil, &NotFoundError{Kind: model.KindNote, ID: id}
	}

	if err := s.dbm.NoteQuery().Id(id).Delete().Error; err != nil {
		return nil, nil, storageErr(err)
	}

	ack := &model.Ack{ID: id, Message: "Note deleted successfully"}

	return ack, []*model.Notice{
		{Kind: model.KindNote, Action: model.ActionDeleted, ID: id},
	}, nil
}
