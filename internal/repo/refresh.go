package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/elefund/elephant-raiser/internal/models"
)

var ErrRefreshInvalid = errors.New("refresh token invalid")

// Refresh tokens are stored hashed; a leaked table does not leak usable
// tokens.
func Sha256Hex(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *GormRepo) SaveRefreshToken(ctx context.Context, token, jti string, userID uint, expiresAt time.Time) error {
	row := models.RefreshToken{
		Token:     Sha256Hex(token),
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt.Unix(),
	}
	return r.DB.WithContext(ctx).Create(&row).Error
}

// CheckRefreshToken returns the owning user id when the stored row is
// present, unrevoked and unexpired.
func (r *GormRepo) CheckRefreshToken(ctx context.Context, token string) (uint, error) {
	var stored models.RefreshToken
	err := r.DB.WithContext(ctx).Where("token = ?", Sha256Hex(token)).First(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrRefreshInvalid
		}
		return 0, err
	}
	if stored.Revoked {
		return 0, ErrRefreshInvalid
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return 0, ErrRefreshInvalid
	}
	return stored.UserID, nil
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ?", Sha256Hex(token)).
		Update("revoked", true).Error
}
