package database

import (
	"gorm.io/gorm"

	"github.com/opencad/dispatchd/internal/model"
)

type NoteQuery struct {
	Query[model.Note]
	id     string
	callID string
	unitID string
}

func NewNoteQuery(db *gorm.DB) *NoteQuery {
	q := &NoteQuery{}
	q.setDefaults(db, "created_at DESC")

	return q
}

func (q *NoteQuery) Id(id string) *NoteQuery {
	q.id = id
	return q
}

func (q *NoteQuery) Call(callID string) *NoteQuery {
	q.callID = callID
	return q
}

func (q *NoteQuery) Unit(unitID string) *NoteQuery {
	q.unitID = unitID
	return q
}

func (q *NoteQuery) where() *gorm.DB {
	tx := q.db

	if q.id != "" {
		tx = tx.Where("id = ?", q.id)
	}

	if q.callID != "" {
		tx = tx.Where("call_id = ?", q.callID)
	}

	if q.unitID != "" {
		tx = tx.Where("unit_id = ?", q.unitID)
	}

	return tx
}

func (q *NoteQuery) Get() []*model.Note {
	return q.get(q.where().Model(&model.Note{}))
}

func (q *NoteQuery) One() *model.Note {
	return q.one(q.where().Model(&model.Note{}))
}

func (q *NoteQuery) Count() int64 {
	return q.count(q.where().Model(&model.Note{}))
}

func (q *NoteQuery) Delete() *gorm.DB {
	return q.where().Delete(&model.Note{})
}
