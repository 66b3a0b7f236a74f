package broadcast

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencad/dispatchd/internal/model"
)

type sink struct {
	mx      sync.Mutex
	notices []string
	kinds   []model.Kind
	alive   bool
}

func newSink() *sink {
	return &sink{alive: true}
}

func (s *sink) onNotice(n *model.Notice) bool {
	s.mx.Lock()
	defer s.mx.Unlock()

	if !s.alive {
		return false
	}

	s.notices = append(s.notices, fmt.Sprintf("%s:%s:%s", n.Kind, n.Action, n.ID))

	return true
}

func (s *sink) onData(kind model.Kind, _ any) bool {
	s.mx.Lock()
	defer s.mx.Unlock()

	if !s.alive {
		return false
	}

	s.kinds = append(s.kinds, kind)

	return true
}

func (s *sink) kill() {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.alive = false
}

func (s *sink) all() []string {
	s.mx.Lock()
	defer s.mx.Unlock()

	res := make([]string, len(s.notices))
	copy(res, s.notices)

	return res
}

func notice(id string) *model.Notice {
	return &model.Notice{Kind: model.KindUnit, Action: model.ActionUpdated, ID: id}
}

func TestSubscribeNotify(t *testing.T) {
	b := New()

	s1 := newSink()
	s2 := newSink()

	b.Subscribe("s1", s1.onNotice)
	b.Subscribe("s2", s2.onNotice)
	require.Equal(t, 2, b.Observers())

	b.Notify(notice("a"))
	b.Notify(notice("b"))

	want := []string{"unit:updated:a", "unit:updated:b"}
	assert.Equal(t, want, s1.all())
	assert.Equal(t, want, s2.all())
}

func TestUnsubscribe(t *testing.T) {
	b := New()

	s1 := newSink()

	b.Subscribe("s1", s1.onNotice)
	b.SubscribeData("s1", s1.onData)
	require.True(t, b.HasDataObservers())

	b.Notify(notice("a"))

	b.Unsubscribe("s1")
	require.Equal(t, 0, b.Observers())
	require.False(t, b.HasDataObservers())

	b.Notify(notice("b"))

	assert.Equal(t, []string{"unit:updated:a"}, s1.all())
}

func TestSubscribeSameNameReplaces(t *testing.T) {
	b := New()

	s1 := newSink()
	s2 := newSink()

	b.Subscribe("s", s1.onNotice)
	b.Subscribe("s", s2.onNotice)
	require.Equal(t, 1, b.Observers())

	b.Notify(notice("a"))

	assert.Empty(t, s1.all())
	assert.Equal(t, []string{"unit:updated:a"}, s2.all())
}

func TestDeadObserverRemoved(t *testing.T) {
	b := New()

	s1 := newSink()
	s2 := newSink()

	b.Subscribe("s1", s1.onNotice)
	b.Subscribe("s2", s2.onNotice)

	s1.kill()

	b.Notify(notice("a"))
	require.Equal(t, 1, b.Observers())

	b.Notify(notice("b"))

	assert.Empty(t, s1.all())
	assert.Equal(t, []string{"unit:updated:a", "unit:updated:b"}, s2.all())
}

func TestDataFanout(t *testing.T) {
	b := New()

	s1 := newSink()

	b.Subscribe("s1", s1.onNotice)
	require.False(t, b.HasDataObservers())

	b.SubscribeData("s1", s1.onData)

	b.Data(model.KindUnit, []string{"snapshot"})
	b.Data(model.KindCall, []string{"snapshot"})

	assert.Equal(t, []model.Kind{model.KindUnit, model.KindCall}, s1.kinds)
}

func TestConcurrentSubscribeNotify(t *testing.T) {
	b := New()

	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)

		go func(i int) {
			defer wg.Done()

			s := newSink()
			name := fmt.Sprintf("s%d", i)
			b.Subscribe(name, s.onNotice)
			b.Unsubscribe(name)
		}(i)

		go func(i int) {
			defer wg.Done()

			b.Notify(notice(fmt.Sprintf("n%d", i)))
		}(i)
	}

	wg.Wait()
	require.Equal(t, 0, b.Observers())
}
