// Package session carries the raise list between requests in a signed
// cookie. The cookie has no expiry, so the list lives for the browser
// session, and the HMAC signature makes client-side edits decode as empty.
package session

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/elefund/elephant-raiser/internal/cart"
)

const CookieName = "raise_list"

var ErrBadCookie = errors.New("raise list cookie invalid")

type raiseListClaims struct {
	RaiseList cart.List `json:"raise_list"`
	jwt.RegisteredClaims
}

type Store struct {
	Secret []byte
}

// Load returns the current raise list. A missing cookie is an empty list; a
// tampered or unparseable cookie is an empty list plus ErrBadCookie so the
// caller can log it.
func (s *Store) Load(c echo.Context) (cart.List, error) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	var claims raiseListClaims
	tkn, err := jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return s.Secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrBadCookie
	}
	return claims.RaiseList, nil
}

func (s *Store) Save(c echo.Context, list cart.List) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, raiseListClaims{RaiseList: list})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return err
	}
	c.SetCookie(sessionCookie(signed))
	return nil
}

func (s *Store) Clear(c echo.Context) {
	cookie := sessionCookie("")
	cookie.MaxAge = -1
	c.SetCookie(cookie)
}

func sessionCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
