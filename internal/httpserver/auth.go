package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/elefund/elephant-raiser/internal/auth"
	"github.com/elefund/elephant-raiser/internal/events"
	"github.com/elefund/elephant-raiser/internal/hash"
	"github.com/elefund/elephant-raiser/internal/logging"
	authmw "github.com/elefund/elephant-raiser/internal/middleware/auth"
	"github.com/elefund/elephant-raiser/internal/models"
	"github.com/elefund/elephant-raiser/internal/repo"
	"github.com/elefund/elephant-raiser/internal/session"
	"github.com/elefund/elephant-raiser/internal/transport"
)

type AuthHTTP struct {
	Repo     *repo.GormRepo
	Auth     *auth.Service
	Sessions *session.Store
	Producer *events.Producer
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		l.Warn("register_failed", "status", 400, "reason", "missing fields")
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
	}
	if err := h.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			l.Warn("register_failed", "status", 409, "reason", "username or email taken")
			return echo.NewHTTPError(http.StatusConflict, "username or email already exists")
		}
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	// Registration doubles as the first login.
	pair, err := h.Auth.IssueTokens(ctx, &user)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log in")
	}
	setAuthCookies(c, pair)

	publish(c, h.Producer, "user_events", user.ID, map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Thank you for joining Elephant Raiser!",
		"user":    user,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Repo.GetUserByUsername(ctx, req.Username)
	if err != nil || !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "username and password do not match")
		return echo.NewHTTPError(http.StatusUnauthorized, "username and password are not matched")
	}

	pair, err := h.Auth.IssueTokens(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log in")
	}
	setAuthCookies(c, pair)

	publish(c, h.Producer, "user_events", user.ID, map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Success! You are logged in as " + user.Username + ".",
		"is_admin": pair.IsAdmin,
	})
}

// Logout revokes the refresh token and drops the whole session, raise list
// included.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if refreshCookie, err := c.Cookie(authmw.RefreshCookie); err == nil && refreshCookie.Value != "" {
		if err := h.Auth.Revoke(ctx, refreshCookie.Value); err != nil {
			l.Error("logout_revoke_failed", "error", err)
		}
	}

	c.SetCookie(authmw.DeleteCookie(authmw.AccessCookie, "/"))
	c.SetCookie(authmw.DeleteCookie(authmw.RefreshCookie, "/"))
	h.Sessions.Clear(c)

	return c.JSON(http.StatusOK, echo.Map{"message": "You have been logged out."})
}

func setAuthCookies(c echo.Context, pair *auth.TokenPair) {
	c.SetCookie(authmw.CreateCookie(authmw.AccessCookie, pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(authmw.CreateCookie(authmw.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp))
}
