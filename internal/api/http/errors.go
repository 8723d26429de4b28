package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/pdash/dashboard-gateway/internal/upstream"
)

// upstreamError maps a client error onto the proxy response: a missing
// credential is a 500 naming the variable, an upstream non-2xx keeps its own
// status code, anything else (timeouts, transport) is a 502.
func upstreamError(err error) error {
	var notConfigured *upstream.NotConfiguredError
	if errors.As(err, &notConfigured) {
		return fiber.NewError(fiber.StatusInternalServerError, notConfigured.Error())
	}

	var status *upstream.StatusError
	if errors.As(err, &status) {
		return fiber.NewError(status.Code, status.Error())
	}

	return fiber.NewError(fiber.StatusBadGateway, err.Error())
}
