package statusapi

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	modbus "github.com/modbus-tcp/server"
)

// Source is the subset of modbus.Server that statusapi depends on. Tests
// substitute a fake; production wiring passes a *modbus.Server directly.
type Source interface {
	IsRunning() bool
	Stats() modbus.Stats
}

// API is the read-only ops surface: a fiber.App plus the event hub feeding
// /ws/events. Construct with New, register the event source with
// Server.OnConnEvent(api.Hub().Publish via an adapter), then Listen.
type API struct {
	app *fiber.App
	hub *Hub
	src Source
	log *zap.Logger
}

// New builds the fiber app and its websocket hub. Call Listen to start the
// hub's Run loop, bind, and block.
func New(src Source, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	a := &API{
		app: fiber.New(fiber.Config{DisableStartupMessage: true}),
		hub: NewHub(),
		src: src,
		log: log,
	}
	a.routes()
	return a
}

// Hub returns the connection-lifecycle event hub. Wire a modbus.Server's
// OnConnEvent callback to Hub().Publish via a small adapter that converts
// modbus.ConnEvent into statusapi.Event.
func (a *API) Hub() *Hub {
	return a.hub
}

// ConnEventAdapter converts a modbus.ConnEvent into the Event shape the
// hub publishes. Intended for use as: server.OnConnEvent(statusapi.ConnEventAdapter(api.Hub())).
func ConnEventAdapter(hub *Hub) func(modbus.ConnEvent) {
	return func(ce modbus.ConnEvent) {
		hub.Publish(Event{
			Kind:      EventKind(ce.Kind),
			ConnID:    ce.ID,
			Remote:    ce.Remote,
			Timestamp: ce.Time,
		})
	}
}

func (a *API) routes() {
	a.app.Get("/healthz", func(c *fiber.Ctx) error {
		if !a.src.IsRunning() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "stopped"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	a.app.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(a.src.Stats())
	})

	a.app.Use("/ws/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	a.app.Get("/ws/events", websocket.New(a.hub.HandleWebSocket))
}

// Listen runs the hub and binds the HTTP listener, blocking until the app
// is shut down or the listener fails.
func (a *API) Listen(addr string) error {
	stop := make(chan struct{})
	defer close(stop)
	go a.hub.Run(stop)
	a.log.Info("status api listening", zap.String("addr", addr))
	return a.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP listener.
func (a *API) Shutdown() error {
	return a.app.Shutdown()
}

// Test exercises the app in-process against an *http.Request, for tests.
func (a *API) Test(req *http.Request) (*http.Response, error) {
	return a.app.Test(req)
}
