package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/opencad/dispatchd/internal/model"
)

type DatabaseManager struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB) *DatabaseManager {
	return &DatabaseManager{
		db:     db,
		logger: slog.With("logger", "dbm"),
	}
}

func (mm *DatabaseManager) Migrate() error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	return mm.db.AutoMigrate(
		&model.Unit{},
		&model.Call{},
		&model.Bolo{},
		&model.Note{},
	)
}

func (mm *DatabaseManager) Create(s any) error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	return mm.db.Create(s).Error
}

// WithTx runs fn inside a single transaction. Every multi-record
// mutation (assignment pairs, delete cascades) goes through here so a
// partial write is never observable.
func (mm *DatabaseManager) WithTx(fn func(tx *DatabaseManager) error) error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	return mm.db.Transaction(func(tx *gorm.DB) error {
		return fn(&DatabaseManager{db: tx, logger: mm.logger})
	})
}

func (mm *DatabaseManager) UnitQuery() *UnitQuery {
	return NewUnitQuery(mm.db)
}

func (mm *DatabaseManager) CallQuery() *CallQuery {
	return NewCallQuery(mm.db)
}

func (mm *DatabaseManager) BoloQuery() *BoloQuery {
	return NewBoloQuery(mm.db)
}

func (mm *DatabaseManager) NoteQuery() *NoteQuery {
	return NewNoteQuery(mm.db)
}
