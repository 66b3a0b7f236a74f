package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/opencad/dispatchd/internal/model"
	"github.com/opencad/dispatchd/internal/store"
)

// Gateway normalizes both inbound mutation families (request/response
// REST calls and WebSocket push messages) into the store's single
// mutation protocol. No validation happens here beyond shape
// normalization; invariants are enforced in the store only.
type Gateway struct {
	logger *slog.Logger
	store  *store.EntityStore
}

func New(s *store.EntityStore) *Gateway {
	return &Gateway{
		logger: slog.With("logger", "gateway"),
		store:  s,
	}
}

// Submit applies one normalized mutation and returns the ack for the
// originating caller.
func (g *Gateway) Submit(kind model.Kind, op store.Op, id string, fields map[string]any) (*model.Ack, error) {
	fields = normalize(kind, fields)

	m := &store.Mutation{
		Kind:   kind,
		Op:     op,
		ID:     id,
		Fields: fields,
		Reopen: popBool(fields, "reopen"),
	}

	ack, err := g.store.Apply(m)
	if err != nil {
		g.logger.Debug(fmt.Sprintf("%s %s rejected", op, kind), slog.Any("error", err))

		return nil, err
	}

	return ack, nil
}

func (g *Gateway) List(kind model.Kind) (any, error) {
	return g.store.List(kind)
}

// normalize maps the push channel's short field names onto the
// canonical ones, so both dialects hit identical store code.
func normalize(kind model.Kind, fields map[string]any) map[string]any {
	if fields == nil {
		return map[string]any{}
	}

	res := make(map[string]any, len(fields))

	for k, v := range fields {
		res[k] = v
	}

	if v, ok := res["number"]; ok && !hasKey(res, "unit_number") {
		res["unit_number"] = v
		delete(res, "number")
	}

	if v, ok := res["type"]; ok {
		key := string(kind) + "_type"
		if !hasKey(res, key) {
			res[key] = v
		}

		delete(res, "type")
	}

	return res
}

func hasKey(fields map[string]any, key string) bool {
	_, ok := fields[key]

	return ok
}

func popBool(fields map[string]any, key string) bool {
	v, ok := fields[key]
	if !ok {
		return false
	}

	delete(fields, key)

	b, _ := v.(bool)

	return b
}

// StatusOf maps the store error taxonomy to HTTP status codes.
func StatusOf(err error) int {
	var (
		vErr  *store.ValidationError
		cErr  *store.ConflictError
		nfErr *store.NotFoundError
		itErr *store.InvalidTransitionError
		stErr *store.StorageUnavailableError
	)

	switch {
	case errors.As(err, &vErr):
		return fiber.StatusBadRequest
	case errors.As(err, &cErr):
		return fiber.StatusConflict
	case errors.As(err, &nfErr):
		return fiber.StatusNotFound
	case errors.As(err, &itErr):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &stErr):
		return fiber.StatusServiceUnavailable
	}

	return fiber.StatusInternalServerError
}

// HandlePush serves one inbound WebSocket message and returns the
// envelopes to send back to that client. Broadcast to the other
// observers happens inside the store.
func (g *Gateway) HandlePush(req *model.PushRequest) []*model.WebMessage {
	if req == nil || req.Typ == "" {
		return []*model.WebMessage{{Typ: "error", Error: "empty request"}}
	}

	if kind, ok := pullKind(req.Typ); ok {
		items, err := g.List(kind)
		if err != nil {
			return []*model.WebMessage{{Typ: "error", Error: err.Error()}}
		}

		return []*model.WebMessage{{Typ: string(kind) + "s_data", Data: items}}
	}

	kind, op, ok := mutationKind(req.Typ)
	if !ok {
		return []*model.WebMessage{{Typ: "error", Error: "unknown message type " + req.Typ}}
	}

	id := ""
	if v, ok := req.Data["id"].(string); ok {
		id = v
		delete(req.Data, "id")
	}

	ack, err := g.Submit(kind, op, id, req.Data)
	if err != nil {
		return []*model.WebMessage{{Typ: "error", Error: err.Error()}}
	}

	return []*model.WebMessage{{Typ: "ack", Ack: ack}}
}

// pullKind matches get_units, get_calls, get_bolos, get_notes.
func pullKind(typ string) (model.Kind, bool) {
	if !strings.HasPrefix(typ, "get_") || !strings.HasSuffix(typ, "s") {
		return "", false
	}

	kind := model.Kind(strings.TrimSuffix(strings.TrimPrefix(typ, "get_"), "s"))

	return kind, kind.Valid()
}

// mutationKind matches add_unit, update_call, delete_bolo and friends.
func mutationKind(typ string) (model.Kind, store.Op, bool) {
	prefix, kindName, found := strings.Cut(typ, "_")
	if !found {
		return "", "", false
	}

	kind := model.Kind(kindName)
	if !kind.Valid() {
		return "", "", false
	}

	switch prefix {
	case "add":
		return kind, store.OpCreate, true
	case "update":
		return kind, store.OpUpdate, true
	case "delete":
		return kind, store.OpDelete, true
	}

	return "", "", false
}
