package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/elefund/elephant-raiser/internal/events"
	"github.com/elefund/elephant-raiser/internal/logging"
	"github.com/elefund/elephant-raiser/internal/models"
	"github.com/elefund/elephant-raiser/internal/payment"
	"github.com/elefund/elephant-raiser/internal/repo"
	"github.com/elefund/elephant-raiser/internal/search"
	"github.com/elefund/elephant-raiser/internal/transport"
)

// PriceCreator provisions a provider price for a new catalog entry.
type PriceCreator interface {
	CreatePrice(ctx context.Context, p payment.PriceParams) (string, error)
}

type AdminHTTP struct {
	Repo     *repo.GormRepo
	Prices   PriceCreator
	ES       *elasticsearch.Client
	Index    string
	Producer *events.Producer
}

func (h *AdminHTTP) CreateElephant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_elephant")

	var req transport.CreateElephantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Price <= 0 {
		l.Warn("create_elephant_failed", "status", 400, "reason", "name and positive price required")
		return echo.NewHTTPError(http.StatusBadRequest, "name and a positive price are required")
	}

	priceID := req.PriceID
	if priceID == "" {
		if h.Prices == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "price_id is required when no payment provider is configured")
		}
		// Prices are stored in whole currency units; the provider wants the
		// smallest unit.
		id, err := h.Prices.CreatePrice(ctx, payment.PriceParams{
			Name:        req.Name,
			Image:       req.Image,
			Description: req.Note,
			UnitAmount:  req.Price * 100,
		})
		if err != nil {
			l.Error("create_elephant_failed", "status", 502, "reason", "provider price creation failed", "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "cannot create provider price")
		}
		priceID = id
	}

	elephant := models.Elephant{
		Name:        req.Name,
		Affiliation: req.Affiliation,
		Species:     req.Species,
		Sex:         req.Sex,
		WikiLink:    req.WikiLink,
		Image:       req.Image,
		Note:        req.Note,
		Price:       req.Price,
		PriceID:     priceID,
	}
	if err := h.Repo.CreateElephant(ctx, &elephant); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "elephant name already exists")
		}
		l.Error("create_elephant_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create elephant")
	}

	h.reindex(ctx, &elephant)
	publish(c, h.Producer, "raise_events", elephant.ID, map[string]any{
		"type":       "elephant_created",
		"elephantID": elephant.ID,
		"name":       elephant.Name,
	})

	l.Info("create_elephant_success", "elephant_id", elephant.ID)
	return c.JSON(http.StatusCreated, elephant)
}

func (h *AdminHTTP) PatchElephant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_elephant")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transport.PatchElephantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	elephant, err := h.Repo.PatchElephant(ctx, req, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "elephant not found")
		}
		l.Error("patch_elephant_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update elephant")
	}

	h.reindex(ctx, elephant)
	return c.JSON(http.StatusOK, elephant)
}

func (h *AdminHTTP) DeleteElephant(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_elephant")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Repo.DeleteElephant(ctx, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "elephant not found")
		}
		l.Error("delete_elephant_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete elephant")
	}

	if h.ES != nil {
		if err := search.DeleteElephant(ctx, h.ES, h.Index, uint(id)); err != nil {
			l.Error("search_delete_failed", "elephant_id", id, "error", err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) reindex(ctx context.Context, e *models.Elephant) {
	if h.ES == nil {
		return
	}
	if err := search.IndexElephant(ctx, h.ES, h.Index, e); err != nil {
		logging.FromContext(ctx).Error("search_index_failed", "elephant_id", e.ID, "error", err)
	}
}
