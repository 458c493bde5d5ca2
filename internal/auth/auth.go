package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/elefund/elephant-raiser/internal/logging"
	"github.com/elefund/elephant-raiser/internal/models"
	"github.com/elefund/elephant-raiser/internal/repo"
	"github.com/elefund/elephant-raiser/internal/tokens"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour

	// The first registered account is the operator.
	AdminUserID uint = 1
	RoleAdmin        = "admin"
	RoleUser         = "user"
)

var ErrRefreshInvalid = repo.ErrRefreshInvalid

type Service struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

func RoleOf(u *models.User) string {
	if u.ID == AdminUserID {
		return RoleAdmin
	}
	return RoleUser
}

func (s *Service) IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	role := RoleOf(user)
	sub := strconv.FormatUint(uint64(user.ID), 10)

	accessExp := time.Now().Add(accessTTL)
	accessToken, err := s.signAccessToken(sub, role, accessExp)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(refreshTTL)
	jti := uuid.NewString()
	refreshToken, err := s.signRefreshToken(sub, jti, refreshExp)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.SaveRefreshToken(ctx, refreshToken, jti, user.ID, refreshExp); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      role == RoleAdmin,
	}, nil
}

// Rotate exchanges a valid refresh token for a fresh pair and revokes the old
// one. Used by the auth middleware when the access cookie has expired.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.rotate")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	userID, err := s.Repo.CheckRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if sub, convErr := strconv.ParseUint(claims.Subject, 10, 64); convErr != nil || uint(sub) != userID {
		return nil, ErrRefreshInvalid
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	pair, err := s.IssueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		l.Error("revoke_rotated_token_failed", "error", err)
	}
	return pair, nil
}

func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *Service) ParseAccess(tokenStr string) (*tokens.AccessClaims, error) {
	return tokens.AccessClaimsFromToken(tokenStr, s.JWTSecret)
}

func (s *Service) signAccessToken(sub, role string, exp time.Time) (string, error) {
	claims := tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}

func (s *Service) signRefreshToken(sub, jti string, exp time.Time) (string, error) {
	claims := tokens.RefreshClaims{
		Typ: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
}

// UserIDFromClaims converts the access token subject back into a user id.
func UserIDFromClaims(claims *tokens.AccessClaims) (uint, error) {
	sub, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.New("invalid subject claim")
	}
	return uint(sub), nil
}
