package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/elefund/elephant-raiser/internal/logging"
	authmw "github.com/elefund/elephant-raiser/internal/middleware/auth"
	"github.com/elefund/elephant-raiser/internal/repo"
)

type CatalogHTTP struct {
	Repo *repo.GormRepo
}

func (h *CatalogHTTP) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"service": "elephant-raiser",
		"message": "Browse the herd at /browse.",
	})
}

func (h *CatalogHTTP) Browse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.browse")

	elephants, err := h.Repo.ListElephants(ctx)
	if err != nil {
		l.Error("browse_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list elephants")
	}
	return c.JSON(http.StatusOK, echo.Map{"elephants": elephants})
}

func (h *CatalogHTTP) GetElephant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_elephant")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	elephant, err := h.Repo.GetElephant(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "elephant not found")
		}
		l.Error("get_elephant_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get elephant")
	}
	return c.JSON(http.StatusOK, elephant)
}

// Info lists the elephants the current user has raised.
func (h *CatalogHTTP) Info(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.info")

	userID, err := authmw.CurrentUserID(c)
	if err != nil {
		return err
	}

	raised, err := h.Repo.ListRaisedElephants(ctx, userID)
	if err != nil {
		l.Error("info_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list raised elephants")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"raised_elephants": raised,
		"is_raised":        len(raised) > 0,
	})
}
