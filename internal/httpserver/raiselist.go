package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/elefund/elephant-raiser/internal/cart"
	"github.com/elefund/elephant-raiser/internal/events"
	"github.com/elefund/elephant-raiser/internal/logging"
	authmw "github.com/elefund/elephant-raiser/internal/middleware/auth"
	"github.com/elefund/elephant-raiser/internal/repo"
	"github.com/elefund/elephant-raiser/internal/session"
)

type RaiseListHTTP struct {
	Repo     *repo.GormRepo
	Sessions *session.Store
	Producer *events.Producer
}

func (h *RaiseListHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "raiselist.add")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	elephant, err := h.Repo.GetElephant(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("add_failed", "status", 404, "reason", "elephant not found", "elephant_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "elephant not found")
		}
		l.Error("add_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load elephant")
	}

	list, err := h.Sessions.Load(c)
	if err != nil {
		l.Warn("raise_list_cookie_reset", "error", err)
	}
	list = list.Add(cart.SnapshotOf(elephant))
	if err := h.Sessions.Save(c, list); err != nil {
		l.Error("add_failed", "status", 500, "reason", "cannot save raise list", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save raise list")
	}

	userID, _ := authmw.CurrentUserID(c)
	publish(c, h.Producer, "raise_events", userID, map[string]any{
		"type":       "raise_list_added",
		"userID":     userID,
		"elephantID": elephant.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":    elephant.Name + " is added to your raise list.",
		"raise_list": list,
	})
}

// Remove rebuilds the snapshot for the elephant and drops its first exact
// match. A list that never held the snapshot (or an already-empty list)
// passes through unchanged.
func (h *RaiseListHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "raiselist.remove")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	elephant, err := h.Repo.GetElephant(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "elephant not found")
		}
		l.Error("remove_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load elephant")
	}

	list, err := h.Sessions.Load(c)
	if err != nil {
		l.Warn("raise_list_cookie_reset", "error", err)
	}
	list = list.Remove(cart.SnapshotOf(elephant))
	if err := h.Sessions.Save(c, list); err != nil {
		l.Error("remove_failed", "status", 500, "reason", "cannot save raise list", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save raise list")
	}

	userID, _ := authmw.CurrentUserID(c)
	publish(c, h.Producer, "raise_events", userID, map[string]any{
		"type":       "raise_list_removed",
		"userID":     userID,
		"elephantID": elephant.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":    elephant.Name + " is removed from your raise list.",
		"raise_list": list,
	})
}

func (h *RaiseListHTTP) List(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "raiselist.list")

	list, err := h.Sessions.Load(c)
	if err != nil {
		l.Warn("raise_list_cookie_reset", "error", err)
	}

	count, total := list.Total()
	return c.JSON(http.StatusOK, echo.Map{
		"raise_list":      list,
		"total_elephants": count,
		"total_amount":    total,
		"is_raised":       count > 0,
	})
}
