// Package http exposes the hub's services over a fiber JSON API.
package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/service"
)

// NewApp builds the fiber app with middleware, health, metrics and every
// service route registered.
func NewApp(svcs *service.Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:                  "central-monitoring-hub",
		DisableStartupMessage:    true,
		EnableSplittingOnParsers: true,
		JSONEncoder:              json.Marshal,
		JSONDecoder:              json.Unmarshal,
		ErrorHandler:             errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(accessLog())

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	Register(app, svcs)
	return app
}
