package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/elefund/elephant-raiser/internal/checkout"
	"github.com/elefund/elephant-raiser/internal/events"
	"github.com/elefund/elephant-raiser/internal/logging"
	authmw "github.com/elefund/elephant-raiser/internal/middleware/auth"
	"github.com/elefund/elephant-raiser/internal/payment"
	"github.com/elefund/elephant-raiser/internal/repo"
	"github.com/elefund/elephant-raiser/internal/session"
)

type CheckoutHTTP struct {
	Svc            *checkout.Service
	Repo           *repo.GormRepo
	Sessions       *session.Store
	PublishableKey string
	Producer       *events.Producer
}

// Config hands the publishable key to the client-side redirect script.
func (h *CheckoutHTTP) Config(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"public_key": h.PublishableKey})
}

func (h *CheckoutHTTP) CreateCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.create_session")

	userID, err := authmw.CurrentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.Repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("create_session_failed", "status", 500, "reason", "cannot load user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}

	list, err := h.Sessions.Load(c)
	if err != nil {
		l.Warn("raise_list_cookie_reset", "error", err)
	}

	sessionID, err := h.Svc.CreateSession(ctx, user, list)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyList) {
			l.Warn("create_session_failed", "status", 400, "reason", "empty raise list")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "your raise list is empty"})
		}
		// Provider rejections surface as-is, no retry.
		l.Warn("create_session_failed", "status", 403, "reason", "provider error", "error", err)
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	}

	l.Info("create_session_success", "user_id", userID)
	return c.JSON(http.StatusOK, echo.Map{"sessionId": sessionID})
}

// Success is the client-triggered confirmation. It persists whatever the
// webhook has not already written for this checkout reference, then clears
// the raise list.
func (h *CheckoutHTTP) Success(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.success")

	userID, err := authmw.CurrentUserID(c)
	if err != nil {
		return err
	}

	list, err := h.Sessions.Load(c)
	if err != nil {
		l.Warn("raise_list_cookie_reset", "error", err)
	}

	created, err := h.Svc.Confirm(ctx, userID, c.QueryParam("session_id"), list)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyList) {
			// Callback without a preceding checkout; recoverable.
			l.Warn("success_without_raise_list", "user_id", userID)
			return c.Redirect(http.StatusSeeOther, "/raise-list")
		}
		l.Error("success_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot record raisings")
	}

	h.Sessions.Clear(c)

	publish(c, h.Producer, "raise_events", userID, map[string]any{
		"type":    "raising_completed",
		"userID":  userID,
		"created": created,
	})

	l.Info("success", "user_id", userID, "created", created)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Thank you! Your elephants are raised.",
		"raised":  len(list),
	})
}

// Cancel keeps the raise list so the user can try again.
func (h *CheckoutHTTP) Cancel(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Payment canceled. Your raise list is kept."})
}

// Webhook is the provider's server-to-server signal. It is deliberately
// unauthenticated: the signature check is the authenticity gate.
func (h *CheckoutHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.webhook")

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	event, _, err := h.Svc.HandleWebhook(ctx, payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrVerification) {
			l.Warn("webhook_rejected", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload or signature")
		}
		// Verified event, but persisting failed; the provider should retry.
		l.Error("webhook_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot record raisings")
	}

	l.Info("webhook_accepted", "event_type", event.Type)
	return c.String(http.StatusOK, "success")
}
