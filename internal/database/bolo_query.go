package database

import (
	"gorm.io/gorm"

	"github.com/opencad/dispatchd/internal/model"
)

type BoloQuery struct {
	Query[model.Bolo]
	id     string
	status string
}

func NewBoloQuery(db *gorm.DB) *BoloQuery {
	q := &BoloQuery{}
	q.setDefaults(db, "created_at DESC")

	return q
}

func (q *BoloQuery) Id(id string) *BoloQuery {
	q.id = id
	return q
}

func (q *BoloQuery) Status(s string) *BoloQuery {
	q.status = s
	return q
}

func (q *BoloQuery) where() *gorm.DB {
	tx := q.db

	if q.id != "" {
		tx = tx.Where("id = ?", q.id)
	}

	if q.status != "" {
		tx = tx.Where("status = ?", q.status)
	}

	return tx
}

func (q *BoloQuery) Get() []*model.Bolo {
	return q.get(q.where().Model(&model.Bolo{}))
}

func (q *BoloQuery) One() *model.Bolo {
	return q.one(q.where().Model(&model.Bolo{}))
}

func (q *BoloQuery) Count() int64 {
	return q.count(q.where().Model(&model.Bolo{}))
}

func (q *BoloQuery) Delete() *gorm.DB {
	return q.where().Delete(&model.Bolo{})
}
