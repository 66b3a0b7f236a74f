package broadcast

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/opencad/dispatchd/internal/model"
)

var (
	noticesMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dispatchd",
		Name:      "notices_total",
		Help:      "The total number of change notices fanned out",
	}, []string{"kind", "action"})

	observersMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dispatchd",
		Name:      "observers",
		Help:      "The number of connected observers",
	})
)

// NoticeFn receives one change notice. Returning false detaches the
// observer. Implementations must not block: the observer side queues
// into a buffered channel and drops when the buffer is full.
type NoticeFn func(n *model.Notice) bool

// DataFn receives the full ordered list for one entity kind.
type DataFn func(kind model.Kind, items any) bool

// Broadcaster is a fan-out relay over the set of connected observers.
// It holds no canonical state. Notify and Data walk the registry
// synchronously so every observer sees notices for a kind in the exact
// order they were applied; the per-observer writer goroutine makes
// delivery itself asynchronous.
type Broadcaster struct {
	logger *slog.Logger

	mx      sync.RWMutex
	notices map[string]NoticeFn
	data    map[string]DataFn
}

func New() *Broadcaster {
	return &Broadcaster{
		logger:  slog.With("logger", "broadcast"),
		notices: make(map[string]NoticeFn),
		data:    make(map[string]DataFn),
	}
}

// Subscribe attaches a notice observer under a unique name. A second
// Subscribe with the same name replaces the first.
func (b *Broadcaster) Subscribe(name string, fn NoticeFn) {
	b.mx.Lock()
	defer b.mx.Unlock()

	if _, ok := b.notices[name]; !ok {
		observersMetric.Inc()
	}

	b.notices[name] = fn
}

// SubscribeData additionally attaches the full-snapshot feed for an
// observer that wants to resynchronize without a separate fetch.
func (b *Broadcaster) SubscribeData(name string, fn DataFn) {
	b.mx.Lock()
	defer b.mx.Unlock()

	b.data[name] = fn
}

func (b *Broadcaster) Unsubscribe(name string) {
	b.mx.Lock()
	defer b.mx.Unlock()

	if _, ok := b.notices[name]; ok {
		observersMetric.Dec()
	}

	delete(b.notices, name)
	delete(b.data, name)
}

func (b *Broadcaster) Observers() int {
	b.mx.RLock()
	defer b.mx.RUnlock()

	return len(b.notices)
}

// HasDataObservers tells the caller whether building a snapshot is
// worth the fetch.
func (b *Broadcaster) HasDataObservers() bool {
	b.mx.RLock()
	defer b.mx.RUnlock()

	return len(b.data) > 0
}

// Notify fans one notice out to every observer. Delivery failures are
// not surfaced: a dead observer is detached, a slow one misses the
// notice.
func (b *Broadcaster) Notify(n *model.Notice) {
	if n == nil {
		return
	}

	noticesMetric.With(prometheus.Labels{"kind": string(n.Kind), "action": string(n.Action)}).Inc()

	var dead []string

	b.mx.RLock()
	for name, fn := range b.notices {
		if !fn(n) {
			dead = append(dead, name)
		}
	}
	b.mx.RUnlock()

	b.drop(dead)
}

// Data fans the current ordered list for a kind out to every
// snapshot-subscribed observer.
func (b *Broadcaster) Data(kind model.Kind, items any) {
	var dead []string

	b.mx.RLock()
	for name, fn := range b.data {
		if !fn(kind, items) {
			dead = append(dead, name)
		}
	}
	b.mx.RUnlock()

	b.drop(dead)
}

func (b *Broadcaster) drop(names []string) {
	for _, name := range names {
		b.logger.Debug("removing dead observer " + name)
		b.Unsubscribe(name)
	}
}
