package database

import (
	"gorm.io/gorm"

	"github.com/opencad/dispatchd/internal/model"
)

type CallQuery struct {
	Query[model.Call]
	id           string
	number       string
	assignedUnit string
}

func NewCallQuery(db *gorm.DB) *CallQuery {
	q := &CallQuery{}
	q.setDefaults(db, "created_at DESC")

	return q
}

func (q *CallQuery) Id(id string) *CallQuery {
	q.id = id
	return q
}

func (q *CallQuery) Number(n string) *CallQuery {
	q.number = n
	return q
}

func (q *CallQuery) AssignedUnit(unitID string) *CallQuery {
	q.assignedUnit = unitID
	return q
}

func (q *CallQuery) where() *gorm.DB {
	tx := q.db

	if q.id != "" {
		tx = tx.Where("id = ?", q.id)
	}

	if q.number != "" {
		tx = tx.Where("call_number = ?", q.number)
	}

	if q.assignedUnit != "" {
		tx = tx.Where("assigned_unit_id = ?", q.assignedUnit)
	}

	return tx
}

func (q *CallQuery) Get() []*model.Call {
	return q.get(q.where().Model(&model.Call{}))
}

func (q *CallQuery) One() *model.Call {
	return q.one(q.where().Model(&model.Call{}))
}

func (q *CallQuery) Count() int64 {
	return q.count(q.where().Model(&model.Call{}))
}

func (q *CallQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Call{}), updates)
}

func (q *CallQuery) Delete() *gorm.DB {
	return q.where().Delete(&model.Call{})
}
