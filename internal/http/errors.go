package http

import (
	"context"
	"errors"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/service"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/telemetry"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/upstream"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/validation"
)

// statusOf maps a service error onto an HTTP status.
func statusOf(err error) int {
	var verr *validation.Error
	var serr *upstream.StatusError
	var ferr *fiber.Error
	var nerr net.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, service.ErrOwnerRequired),
		errors.Is(err, service.ErrEquipmentRequired),
		errors.Is(err, service.ErrNotBucketed),
		errors.Is(err, telemetry.ErrUnknownGranularity),
		errors.Is(err, telemetry.ErrInvalidClock):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNoReport):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrSuperseded):
		return fiber.StatusConflict
	case errors.Is(err, upstream.ErrUnavailable),
		errors.Is(err, service.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	// Client timeouts arrive wrapped in ErrUpstream.
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &nerr) && nerr.Timeout():
		return fiber.StatusGatewayTimeout
	case errors.As(err, &serr),
		errors.Is(err, upstream.ErrUpstream):
		return fiber.StatusBadGateway
	case errors.As(err, &ferr):
		return ferr.Code
	}
	return fiber.StatusInternalServerError
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	body := fiber.Map{"error": err.Error()}

	var verr *validation.Error
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	var serr *upstream.StatusError
	if errors.As(err, &serr) {
		body["upstream_status"] = serr.StatusCode
	}
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("request failed")
	}
	return c.Status(status).JSON(body)
}

// errorHandler renders errors that escape a handler, including fiber's own
// 404 and 405 responses.
func errorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}
