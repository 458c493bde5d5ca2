package httpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/elefund/elephant-raiser/internal/events"
	"github.com/elefund/elephant-raiser/internal/logging"
)

// publish sends a domain event without blocking the response path on broker
// trouble; failures are logged and swallowed.
func publish(c echo.Context, p *events.Producer, topic string, key uint, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := p.PublishEvent(ctx, topic, fmt.Sprint(key), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("event publish failed", "topic", topic, "error", err)
	}
}
