package database

import (
	"gorm.io/gorm"

	"github.com/opencad/dispatchd/internal/model"
)

type UnitQuery struct {
	Query[model.Unit]
	id           string
	number       string
	assignedCall string
}

func NewUnitQuery(db *gorm.DB) *UnitQuery {
	q := &UnitQuery{}
	q.setDefaults(db, "unit_number ASC")

	return q
}

func (q *UnitQuery) Id(id string) *UnitQuery {
	q.id = id
	return q
}

func (q *UnitQuery) Number(n string) *UnitQuery {
	q.number = n
	return q
}

func (q *UnitQuery) AssignedCall(callID string) *UnitQuery {
	q.assignedCall = callID
	return q
}

func (q *UnitQuery) where() *gorm.DB {
	tx := q.db

	if q.id != "" {
		tx = tx.Where("id = ?", q.id)
	}

	if q.number != "" {
		tx = tx.Where("unit_number = ?", q.number)
	}

	if q.assignedCall != "" {
		tx = tx.Where("assigned_call_id = ?", q.assignedCall)
	}

	return tx
}

func (q *UnitQuery) Get() []*model.Unit {
	return q.get(q.where().Model(&model.Unit{}))
}

func (q *UnitQuery) One() *model.Unit {
	return q.one(q.where().Model(&model.Unit{}))
}

func (q *UnitQuery) Count() int64 {
	return q.count(q.where().Model(&model.Unit{}))
}

func (q *UnitQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Unit{}), updates)
}

func (q *UnitQuery) Delete() *gorm.DB {
	return q.where().Delete(&model.Unit{})
}
