package wshandler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/opencad/dispatchd/internal/model"
)

var droppedMetric = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "dispatchd",
	Subsystem: "ws",
	Name:      "dropped_total",
	Help:      "The number of outbound messages dropped on slow observers",
})

// PushHandler serves one inbound push message and returns the replies
// for this client only.
type PushHandler func(req *model.PushRequest) []*model.WebMessage

// JSONWsHandler serves one observer connection. Outbound messages go
// through a buffered channel drained by a dedicated writer goroutine;
// enqueueing never blocks, a full buffer drops the message.
type JSONWsHandler struct {
	log    *slog.Logger
	name   string
	ws     *websocket.Conn
	handle PushHandler

	// mx pairs the active check in send with the close in stop, so an
	// enqueue can never hit a just-closed channel.
	mx     sync.RWMutex
	ch     chan *model.WebMessage
	active int32
}

func NewHandler(log *slog.Logger, name string, ws *websocket.Conn, handle PushHandler) *JSONWsHandler {
	return &JSONWsHandler{
		log:    log.With("client", name),
		name:   name,
		ws:     ws,
		ch:     make(chan *model.WebMessage, 16),
		active: 1,
		handle: handle,
	}
}

func (w *JSONWsHandler) Name() string {
	return w.name
}

func (w *JSONWsHandler) IsActive() bool {
	return w != nil && atomic.LoadInt32(&w.active) == 1
}

func (w *JSONWsHandler) stop() {
	w.mx.Lock()
	defer w.mx.Unlock()

	if atomic.CompareAndSwapInt32(&w.active, 1, 0) {
		close(w.ch)

		if w.ws != nil {
			w.ws.Close()
		}
	}
}

func (w *JSONWsHandler) writer() {
	for item := range w.ch {
		if !w.IsActive() {
			return
		}

		if item == nil {
			continue
		}

		_ = w.ws.WriteJSON(item)
	}
}

func (w *JSONWsHandler) reader() {
	defer w.stop()

	for {
		_, data, err := w.ws.ReadMessage()

		if err != nil {
			w.log.Debug("error on read", slog.Any("error", err))

			return
		}

		req := new(model.PushRequest)

		if err := json.Unmarshal(data, req); err != nil {
			w.send(&model.WebMessage{Typ: "error", Error: "malformed message"})

			continue
		}

		if w.handle == nil {
			continue
		}

		for _, msg := range w.handle(req) {
			w.send(msg)
		}
	}
}

func (w *JSONWsHandler) send(msg *model.WebMessage) bool {
	if w == nil {
		return false
	}

	w.mx.RLock()
	defer w.mx.RUnlock()

	if !w.IsActive() {
		return false
	}

	select {
	case w.ch <- msg:
	default:
		droppedMetric.Inc()
	}

	return true
}

// Hello greets a freshly connected observer.
func (w *JSONWsHandler) Hello() {
	w.send(&model.WebMessage{Typ: "status", Message: "Connected to dispatch server"})
}

// SendNotice queues one change notice. The return value reports
// whether the observer is still attached, not delivery.
func (w *JSONWsHandler) SendNotice(n *model.Notice) bool {
	if n == nil {
		return w.IsActive()
	}

	return w.send(&model.WebMessage{Typ: string(n.Kind) + "_update", Notice: n})
}

// SendData queues the full ordered list for one entity kind.
func (w *JSONWsHandler) SendData(kind model.Kind, items any) bool {
	return w.send(&model.WebMessage{Typ: string(kind) + "s_data", Data: items})
}

func (w *JSONWsHandler) closehandler(code int, text string) error {
	w.log.Info(fmt.Sprintf("closed with code %d, msg %s", code, text))
	w.stop()

	return nil
}

func (w *JSONWsHandler) Listen() {
	w.log.Debug("ws start")
	w.ws.SetCloseHandler(w.closehandler)

	go w.writer()
	w.reader()
	w.log.Debug("ws stop")
}
