package store

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/opencad/dispatchd/internal/broadcast"
	"github.com/opencad/dispatchd/internal/database"
	"github.com/opencad/dispatchd/internal/model"
)

var mutationsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dispatchd",
	Name:      "mutations_total",
	Help:      "The total number of mutations applied",
}, []string{"kind", "op", "result"})

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Mutation is the single internal mutation protocol. Both inbound
// channels (REST and WebSocket push) normalize to this shape, so
// invariant enforcement lives in exactly one place.
type Mutation struct {
	Kind   model.Kind
	Op     Op
	ID     string
	Fields map[string]any
	// Reopen marks the privileged reopening of a Closed call.
	Reopen bool
}

// EntityStore owns canonical state for all entity kinds. Every
// mutation is serialized by mx so check-then-act sequences (uniqueness
// check + insert, read-assignment + write-assignment) are never split
// by a concurrent writer. Reads run lock-free against the database.
type EntityStore struct {
	logger *slog.Logger
	dbm    *database.DatabaseManager
	events *broadcast.Broadcaster

	mx sync.Mutex
}

func New(dbm *database.DatabaseManager, events *broadcast.Broadcaster) *EntityStore {
	return &EntityStore{
		logger: slog.With("logger", "store"),
		dbm:    dbm,
		events: events,
	}
}

// Apply validates and applies one mutation. On success the change is
// already broadcast to all observers; the returned Ack goes to the
// originating caller only.
func (s *EntityStore) Apply(m *Mutation) (*model.Ack, error) {
	if m == nil {
		return nil, validationErr("empty mutation")
	}

	if !m.Kind.Valid() {
		return nil, validationErr("unknown entity kind %q", m.Kind)
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	var (
		ack     *model.Ack
		notices []*model.Notice
		err     error
	)

	switch m.Op {
	case OpCreate:
		ack, notices, err = s.create(m)
	case OpUpdate:
		ack, notices, err = s.update(m)
	case OpDelete:
		ack, notices, err = s.delete(m)
	default:
		return nil, validationErr("unknown operation %q", m.Op)
	}

	if err != nil {
		mutationsMetric.With(prometheus.Labels{"kind": string(m.Kind), "op": string(m.Op), "result": "rejected"}).Inc()

		return nil, err
	}

	mutationsMetric.With(prometheus.Labels{"kind": string(m.Kind), "op": string(m.Op), "result": "ok"}).Inc()

	s.publish(notices)

	return ack, nil
}

func (s *EntityStore) create(m *Mutation) (*model.Ack, []*model.Notice, error) {
	switch m.Kind {
	case model.KindUnit:
		return s.createUnit(m.Fields)
	case model.KindCall:
		return s.createCall(m.Fields)
	case model.KindBolo:
		return s.createBolo(m.Fields)
	case model.KindNote:
		return s.createNote(m.Fields)
	}

	return nil, nil, validationErr("unknown entity kind %q", m.Kind)
}

func (s *EntityStore) update(m *Mutation) (*model.Ack, []*model.Notice, error) {
	if m.ID == "" {
		return nil, nil, validationErr("id is required")
	}

	switch m.Kind {
	case model.KindUnit:
		return s.updateUnit(m.ID, m.Fields)
	case model.KindCall:
		return s.updateCall(m.ID, m.Fields, m.Reopen)
	case model.KindBolo, model.KindNote:
		return nil, nil, validationErr("%ss are not updatable, delete and recreate", m.Kind)
	}

	return nil, nil, validationErr("unknown entity kind %q", m.Kind)
}

func (s *EntityStore) delete(m *Mutation) (*model.Ack, []*model.Notice, error) {
	if m.ID == "" {
		return nil, nil, validationErr("id is required")
	}

	switch m.Kind {
	case model.KindUnit:
		return s.deleteUnit(m.ID)
	case model.KindCall:
		return s.deleteCall(m.ID)
	case model.KindBolo:
		return s.deleteBolo(m.ID)
	case model.KindNote:
		return s.deleteNote(m.ID)
	}

	return nil, nil, validationErr("unknown entity kind %q", m.Kind)
}

// List returns the current ordered snapshot for one kind. Units are
// ordered by unit number, everything else newest first, so clients
// have a stable baseline for diffing.
func (s *EntityStore) List(kind model.Kind) (any, error) {
	switch kind {
	case model.KindUnit:
		return model.UnitsDTO(s.dbm.UnitQuery().Get()), nil
	case model.KindCall:
		return model.CallsDTO(s.dbm.CallQuery().Get()), nil
	case model.KindBolo:
		return model.BolosDTO(s.dbm.BoloQuery().Get()), nil
	case model.KindNote:
		return model.NotesDTO(s.dbm.NoteQuery().Get()), nil
	}

	return nil, validationErr("unknown entity kind %q", kind)
}

// publish runs while the mutation lock is still held, which is what
// keeps notice order identical for every observer.
func (s *EntityStore) publish(notices []*model.Notice) {
	if s.events == nil {
		return
	}

	for _, n := range notices {
		s.events.Notify(n)
	}

	if !s.events.HasDataObservers() {
		return
	}

	seen := make(map[model.Kind]bool)

	for _, n := range notices {
		if seen[n.Kind] {
			continue
		}

		seen[n.Kind] = true

		if items, err := s.List(n.Kind); err == nil {
			s.events.Data(n.Kind, items)
		}
	}
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}

	return &StorageUnavailableError{Err: err}
}

func strField(fields map[string]any, key string) string {
	if v, ok := fields[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return ""
}

func hasField(fields map[string]any, key string) bool {
	_, ok := fields[key]

	return ok
}

func validPriority(p string) bool {
	switch p {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
		return true
	}

	return false
}
