package main

import (
	"encoding/json"
	"log/slog"
	"runtime/pprof"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opencad/dispatchd/internal/gateway"
	"github.com/opencad/dispatchd/internal/model"
	"github.com/opencad/dispatchd/internal/store"
	"github.com/opencad/dispatchd/internal/wshandler"
	"github.com/opencad/dispatchd/pkg/log"
)

type HttpServer struct {
	f    *fiber.App
	addr string
}

func NewHttpServer(app *App, addr string) *HttpServer {
	srv := &HttpServer{addr: addr}

	srv.f = fiber.New(fiber.Config{EnablePrintRoutes: false, DisableStartupMessage: true})

	srv.f.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "api", DoMetrics: true, LogErrorsOnly: true}))

	for _, kind := range []model.Kind{model.KindUnit, model.KindCall, model.KindBolo, model.KindNote} {
		path := "/api/" + string(kind) + "s"

		srv.f.Get(path, getListHandler(app, kind))
		srv.f.Post(path, getCreateHandler(app, kind))
		srv.f.Put(path+"/:id", getUpdateHandler(app, kind))
		srv.f.Delete(path+"/:id", getDeleteHandler(app, kind))
	}

	srv.f.Post("/api/units/:id/assign", getAssignHandler(app))
	srv.f.Post("/api/units/:id/unassign", getUnassignHandler(app))

	srv.f.Get("/api/status-codes", getCodesHandler(app))

	srv.f.Get("/ws", getWsHandler(app))

	srv.f.Get("/stack", getStackHandler())
	srv.f.Get("/metrics", getMetricsHandler())

	return srv
}

func (srv *HttpServer) Address() string {
	return srv.addr
}

func (srv *HttpServer) Listen() error {
	return srv.f.Listen(srv.addr)
}

func sendError(ctx *fiber.Ctx, err error) error {
	return ctx.Status(gateway.StatusOf(err)).JSON(fiber.Map{"error": err.Error()})
}

func getListHandler(app *App, kind model.Kind) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		items, err := app.gw.List(kind)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(items)
	}
}

func getCreateHandler(app *App, kind model.Kind) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		fields := make(map[string]any)

		if err := json.Unmarshal(ctx.Body(), &fields); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}

		ack, err := app.gw.Submit(kind, store.OpCreate, "", fields)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(ack)
	}
}

func getUpdateHandler(app *App, kind model.Kind) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		fields := make(map[string]any)

		if err := json.Unmarshal(ctx.Body(), &fields); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}

		ack, err := app.gw.Submit(kind, store.OpUpdate, ctx.Params("id"), fields)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(ack)
	}
}

func getDeleteHandler(app *App, kind model.Kind) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		ack, err := app.gw.Submit(kind, store.OpDelete, ctx.Params("id"), nil)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(ack)
	}
}

func getAssignHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		body := make(map[string]any)

		if err := json.Unmarshal(ctx.Body(), &body); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}

		callID, _ := body["call_id"].(string)

		fields := map[string]any{"assigned_call_id": callID}

		ack, err := app.gw.Submit(model.KindUnit, store.OpUpdate, ctx.Params("id"), fields)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(ack)
	}
}

func getUnassignHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		fields := map[string]any{"assigned_call_id": ""}

		ack, err := app.gw.Submit(model.KindUnit, store.OpUpdate, ctx.Params("id"), fields)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(ack)
	}
}

func getCodesHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(app.codes.Codes())
	}
}

// getWsHandler attaches an observer for the connection's lifetime.
// With ?sync=full the observer also receives full snapshots after
// every accepted mutation.
func getWsHandler(app *App) fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		name := uuid.NewString()

		h := wshandler.NewHandler(app.logger, name, ws, app.gw.HandlePush)

		app.logger.Debug("ws listener connected", slog.String("client", name))
		app.events.Subscribe(name, h.SendNotice)

		if ws.Query("sync") == "full" {
			app.events.SubscribeData(name, h.SendData)
		}

		h.Hello()
		h.Listen()
		app.logger.Debug("ws listener disconnected", slog.String("client", name))
		app.events.Unsubscribe(name)
	})
}

func getStackHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return pprof.Lookup("goroutine").WriteTo(ctx.Response().BodyWriter(), 1)
	}
}

func getMetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{DisableCompression: true},
	))
}
