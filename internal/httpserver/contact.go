package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/elefund/elephant-raiser/internal/logging"
	"github.com/elefund/elephant-raiser/internal/mailer"
	"github.com/elefund/elephant-raiser/internal/transport"
)

type ContactHTTP struct {
	Mailer *mailer.Mailer
}

func (h *ContactHTTP) Contact(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.send")

	var req transport.ContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Email == "" || req.Message == "" {
		l.Warn("contact_failed", "status", 400, "reason", "missing fields")
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and message are required")
	}

	if err := h.Mailer.Send(req.Name, req.Email, req.Subject, req.Message); err != nil {
		l.Error("contact_failed", "status", 500, "reason", "smtp send failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot send message")
	}

	l.Info("contact_sent")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Thank you for contacting us! We will reply back as soon as possible.",
	})
}
