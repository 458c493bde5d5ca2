// Package auth gates routes on the cookie-based token pair: explicit guard
// middleware instead of per-handler checks, with silent rotation when the
// access cookie has expired but the refresh cookie is still good.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/elefund/elephant-raiser/internal/auth"
	"github.com/elefund/elephant-raiser/internal/tokens"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

type Guard struct {
	Auth *auth.Service
}

type validatorFunc func(claims *tokens.AccessClaims) error

func (g *Guard) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return g.requireWithValidator(next, nil)
}

func (g *Guard) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return g.requireWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != auth.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (g *Guard) requireWithValidator(next echo.HandlerFunc, validator validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessCookie, err := c.Cookie(AccessCookie)
		if err != nil || accessCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := g.Auth.ParseAccess(accessCookie.Value)
		if err == nil && claims != nil {
			if validator != nil {
				if vErr := validator(claims); vErr != nil {
					return vErr
				}
			}
			setUserContext(c, claims)
			return next(c)
		}

		if !errors.Is(err, jwt.ErrTokenExpired) {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		refreshCookie, rErr := c.Cookie(RefreshCookie)
		if rErr != nil || refreshCookie.Value == "" {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		pair, err := g.Auth.Rotate(c.Request().Context(), refreshCookie.Value)
		if err != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
		}

		c.SetCookie(CreateCookie(AccessCookie, pair.AccessToken, "/", pair.AccessExp))
		c.SetCookie(CreateCookie(RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp))

		newClaims, err := g.Auth.ParseAccess(pair.AccessToken)
		if err != nil || newClaims == nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}
		if validator != nil {
			if vErr := validator(newClaims); vErr != nil {
				clearAuthCookies(c)
				return vErr
			}
		}
		setUserContext(c, newClaims)
		return next(c)
	}
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	userID, err := auth.UserIDFromClaims(claims)
	if err != nil {
		return
	}
	c.Set("user_id", userID)
	c.Set("role", claims.Role)
}

// CurrentUserID reads the id the guard placed on the context.
func CurrentUserID(c echo.Context) (uint, error) {
	id, ok := c.Get("user_id").(uint)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return CreateCookie(name, "", path, time.Now().Add(-time.Hour))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(DeleteCookie(AccessCookie, "/"))
	c.SetCookie(DeleteCookie(RefreshCookie, "/"))
}
