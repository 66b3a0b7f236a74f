package store

import (
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opencad/dispatchd/internal/broadcast"
	"github.com/opencad/dispatchd/internal/database"
	"github.com/opencad/dispatchd/internal/model"
)

func getTestStore(t *testing.T) (*EntityStore, *broadcast.Broadcaster) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// one shared in-memory database for all goroutines
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	dbm := database.New(db)
	require.NoError(t, dbm.Migrate())

	events := broadcast.New()

	return New(dbm, events), events
}

type recorder struct {
	mx      sync.Mutex
	notices []string
}

func (r *recorder) record(n *model.Notice) bool {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.notices = append(r.notices, fmt.Sprintf("%s:%s:%s", n.Kind, n.Action, n.ID))

	return true
}

func (r *recorder) all() []string {
	r.mx.Lock()
	defer r.mx.Unlock()

	res := make([]string, len(r.notices))
	copy(res, r.notices)

	return res
}

func createUnit(t *testing.T, s *EntityStore, number, unitType string) string {
	t.Helper()

	ack, err := s.Apply(&Mutation{Kind: model.KindUnit, Op: OpCreate, Fields: map[string]any{
		"unit_number": number,
		"unit_type":   unitType,
	}})
	require.NoError(t, err)

	return ack.ID
}

func createCall(t *testing.T, s *EntityStore, fields map[string]any) *model.Ack {
	t.Helper()

	ack, err := s.Apply(&Mutation{Kind: model.KindCall, Op: OpCreate, Fields: fields})
	require.NoError(t, err)

	return ack
}

func TestCreateUnit(t *testing.T) {
	s, _ := getTestStore(t)

	id := createUnit(t, s, "M-12", "Medic")
	require.NotEmpty(t, id)

	items, err := s.List(model.KindUnit)
	require.NoError(t, err)

	units := items.([]*model.UnitDTO)
	require.Len(t, units, 1)
	require.Equal(t, "M-12", units[0].UnitNumber)
	require.Equal(t, model.UnitStatusAvailable, units[0].Status)
	require.Nil(t, units[0].AssignedCallID)
}

func TestCreateUnitDuplicateNumber(t *testing.T) {
	s, _ := getTestStore(t)

	createUnit(t, s, "M-12", "Medic")

	_, err := s.Apply(&Mutation{Kind: model.KindUnit, Op: OpCreate, Fields: map[string]any{
		"unit_number": "M-12",
		"unit_type":   "Fire",
	}})
	require.Error(t, err)

	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
}

func TestCreateUnitConcurrentDuplicates(t *testing.T) {
	s, _ := getTestStore(t)

	const n = 10

	var (
		wg        sync.WaitGroup
		mx        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, err := s.Apply(&Mutation{Kind: model.KindUnit, Op: OpCreate, Fields: map[string]any{
				"unit_number": "E-1",
				"unit_type":   fmt.Sprintf("Engine-%d", i),
			}})

			mx.Lock()
			defer mx.Unlock()

			if err == nil {
				succeeded++
				return
			}

			var cErr *ConflictError
			require.ErrorAs(t, err, &cErr)
			conflicts++
		}(i)
	}

	wg.Wait()

	require.Equal(t, 1, succeeded)
	require.Equal(t, n-1, conflicts)
}

func TestCreateUnitValidation(t *testing.T) {
	s, _ := getTestStore(t)

	_, err := s.Apply(&Mutation{Kind: model.KindUnit, Op: OpCreate, Fields: map[string]any{
		"unit_type": "Medic",
	}})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestCreateCall(t *testing.T) {
	s, _ := getTestStore(t)

	ack := createCall(t, s, map[string]any{
		"priority":  model.PriorityHigh,
		"call_type": "MVA",
		"location":  "5th&Main",
	})

	require.Regexp(t, regexp.MustCompile(`^CALL-\d{8}-[0-9A-F]{4}$`), ack.CallNumber)

	items, err := s.List(model.KindCall)
	require.NoError(t, err)

	calls := items.([]*model.CallDTO)
	require.Len(t, calls, 1)
	require.Equal(t, model.CallStatusNew, calls[0].Status)
	require.Equal(t, model.PriorityHigh, calls[0].Priority)
}

func TestCreateCallDefaults(t *testing.T) {
	s, _ := getTestStore(t)

	ack := createCall(t, s, map[string]any{
		"call_type": "Noise",
		"location":  "Elm St",
	})

	items, _ := s.List(model.KindCall)
	calls := items.([]*model.CallDTO)

	require.Equal(t, ack.ID, calls[0].ID)
	require.Equal(t, model.PriorityMedium, calls[0].Priority)
}

func TestCreateCallRequiresLocation(t *testing.T) {
	s, _ := getTestStore(t)

	_, err := s.Apply(&Mutation{Kind: model.KindCall, Op: OpCreate, Fields: map[string]any{
		"call_type": "MVA",
	}})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestUpdateUnitStatus(t *testing.T) {
	s, _ := getTestStore(t)

	id := createUnit(t, s, "M-12", "Medic")

	_, err := s.Apply(&Mutation{Kind: model.KindUnit, Op: OpUpdate, ID: id, Fields: map[string]any{
		"status": model.UnitStatusDispatched,
	}})
	require.NoError(t, err)

	// skipping EnRoute is not allowed
	_, err = s.Apply(&Mutation{Kind: model.KindUnit, Op: OpUpdate, ID: id, Fields: map[string]any{
		"status": model.UnitStatusAvailable,
	}})

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
}

func TestUpdateUnitNotFound(t *testing.T) {
	s, _ := getTestStore(t)

	_, err := s.Apply(&Mutation{Kind: model.KindUnit, Op: OpUpdate, ID: "no-such-id", Fields: map[string]any{
		"location": "HQ",
	}})

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestUpdateClosedCall(t *testing.T) {
	s, _ := getTestStore(t)

	ack := createCall(t, s, map[string]any{
		"call_type": "MVA",
		"location":  "5th&Main",
		"status":    model.CallStatusClosed,
	})

	// no mutation on a closed call, not even free-text fields
	_, err := s.Apply(&Mutation{Kind: model.KindCall, Op: OpUpdate, ID: ack.ID, Fields: map[string]any{
		"description": "late addendum",
	}})

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)

	// explicit reopen works and lands on New
	_, err = s.Apply(&Mutation{Kind: model.KindCall, Op: OpUpdate, ID: ack.ID, Reopen: true, Fields: map[string]any{}})
	require.NoError(t, err)

	items, _ := s.List(model.KindCall)
	calls := items.([]*model.CallDTO)
	require.Equal(t, model.CallStatusNew, calls[0].Status)
}

func TestBoloCreateAndDelete(t *testing.T) {
	s, _ := getTestStore(t)

	ack, err := s.Apply(&Mutation{Kind: model.KindBolo, Op: OpCreate, Fields: map[string]any{
		"title":       "Silver sedan",
		"description": "Last seen heading north",
		"bolo_type":   "Vehicle",
	}})
	require.NoError(t, err)

	items, _ := s.List(model.KindBolo)
	bolos := items.([]*model.BoloDTO)
	require.Len(t, bolos, 1)
	require.Equal(t, model.BoloStatusActive, bolos[0].Status)
	require.Equal(t, "Dispatcher", bolos[0].CreatedBy)

	// bolos are append/delete only
	_, err = s.Apply(&Mutation{Kind: model.KindBolo, Op: OpUpdate, ID: ack.ID, Fields: map[string]any{
		"title": "Gray sedan",
	}})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = s.Apply(&Mutation{Kind: model.KindBolo, Op: OpDelete, ID: ack.ID})
	require.NoError(t, err)

	items, _ = s.List(model.KindBolo)
	require.Empty(t, items.([]*model.BoloDTO))
}

func TestNoteRequiresExistingRefs(t *testing.T) {
	s, _ := getTestStore(t)

	_, err := s.Apply(&Mutation{Kind: model.KindNote, Op: OpCreate, Fields: map[string]any{
		"note_type": "Info",
		"content":   "text",
		"call_id":   "no-such-call",
	}})

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)

	unitID := createUnit(t, s, "M-1", "Medic")

	ack, err := s.Apply(&Mutation{Kind: model.KindNote, Op: OpCreate, Fields: map[string]any{
		"note_type": "Info",
		"content":   "text",
		"unit_id":   unitID,
	}})
	require.NoError(t, err)
	require.NotEmpty(t, ack.ID)
}

func TestDeleteNotFound(t *testing.T) {
	s, _ := getTestStore(t)

	for _, kind := range []model.Kind{model.KindUnit, model.KindCall, model.KindBolo, model.KindNote} {
		_, err := s.Apply(&Mutation{Kind: kind, Op: OpDelete, ID: "missing"})

		var nfErr *NotFoundError
		require.ErrorAs(t, err, &nfErr, "kind %s", kind)
	}
}

func TestListOrdering(t *testing.T) {
	s, _ := getTestStore(t)

	createUnit(t, s, "M-2", "Medic")
	createUnit(t, s, "E-1", "Engine")
	createUnit(t, s, "M-1", "Medic")

	items, _ := s.List(model.KindUnit)
	units := items.([]*model.UnitDTO)

	require.Len(t, units, 3)
	require.Equal(t, "E-1", units[0].UnitNumber)
	require.Equal(t, "M-1", units[1].UnitNumber)
	require.Equal(t, "M-2", units[2].UnitNumber)
}

func TestBroadcastOrdering(t *testing.T) {
	s, events := getTestStore(t)

	rec1 := &recorder{}
	rec2 := &recorder{}
	events.Subscribe("rec1", rec1.record)
	events.Subscribe("rec2", rec2.record)

	id1 := createUnit(t, s, "M-1", "Medic")
	id2 := createUnit(t, s, "M-2", "Medic")

	_, err := s.Apply(&Mutation{Kind: model.KindUnit, Op: OpUpdate, ID: id1, Fields: map[string]any{
		"location": "HQ",
	}})
	require.NoError(t, err)

	want := []string{
		"unit:created:" + id1,
		"unit:created:" + id2,
		"unit:updated:" + id1,
	}

	require.Equal(t, want, rec1.all())
	require.Equal(t, want, rec2.all())
}
