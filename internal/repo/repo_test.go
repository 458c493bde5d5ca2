package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elefund/elephant-raiser/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection so every query sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Elephant{},
		&models.Raising{},
		&models.RefreshToken{},
	))
	return &GormRepo{DB: db}
}

func seedElephant(t *testing.T, r *GormRepo, name string, price int64) *models.Elephant {
	t.Helper()
	e := &models.Elephant{
		Name:    name,
		Price:   price,
		PriceID: "price_" + name,
	}
	require.NoError(t, r.CreateElephant(context.Background(), e))
	return e
}

func TestCreateUserConflicts(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	alice := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, r.CreateUser(ctx, &alice))
	require.NotZero(t, alice.ID)

	sameName := models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"}
	require.ErrorIs(t, r.CreateUser(ctx, &sameName), ErrConflict)

	sameEmail := models.User{Username: "bob", Email: "alice@example.com", PasswordHash: "x"}
	require.ErrorIs(t, r.CreateUser(ctx, &sameEmail), ErrConflict)

	got, err := r.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
}

func TestGetUserNotFound(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	_, err := r.GetUserByUsername(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = r.GetUserByID(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestElephantCRUD(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	mosha := seedElephant(t, r, "Mosha", 10)
	seedElephant(t, r, "Motala", 15)

	dup := models.Elephant{Name: "Mosha", Price: 99, PriceID: "price_dup"}
	require.ErrorIs(t, r.CreateElephant(ctx, &dup), ErrConflict)

	all, err := r.ListElephants(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Mosha", all[0].Name)

	got, err := r.GetElephant(ctx, mosha.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.Price)

	require.NoError(t, r.DeleteElephant(ctx, mosha.ID))
	require.ErrorIs(t, r.DeleteElephant(ctx, mosha.ID), ErrNotFound)

	_, err = r.GetElephant(ctx, mosha.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRaisingsIdempotentPerCheckoutRef(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, r.CreateUser(ctx, &user))
	a := seedElephant(t, r, "Mosha", 10)
	b := seedElephant(t, r, "Motala", 15)

	created, err := r.CreateRaisings(ctx, user.ID, []uint{a.ID, b.ID}, "cs_test_1")
	require.NoError(t, err)
	require.Equal(t, int64(2), created)

	// Second write for the same reference changes nothing.
	created, err = r.CreateRaisings(ctx, user.ID, []uint{a.ID, b.ID}, "cs_test_1")
	require.NoError(t, err)
	require.Zero(t, created)

	raisings, err := r.ListRaisingsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, raisings, 2)

	// A later checkout for the same elephant is a new raising.
	created, err = r.CreateRaisings(ctx, user.ID, []uint{a.ID}, "cs_test_2")
	require.NoError(t, err)
	require.Equal(t, int64(1), created)

	raised, err := r.ListRaisedElephants(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, raised, 3)
	require.Equal(t, "Mosha", raised[0].Name)
}

func TestCreateRaisingsEmpty(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	created, err := r.CreateRaisings(context.Background(), 1, nil, "cs_test_1")
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	const token = "refresh-token-value"
	require.NoError(t, r.SaveRefreshToken(ctx, token, "jti-1", 7, time.Now().Add(time.Hour)))

	userID, err := r.CheckRefreshToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, uint(7), userID)

	_, err = r.CheckRefreshToken(ctx, "unknown-token")
	require.ErrorIs(t, err, ErrRefreshInvalid)

	require.NoError(t, r.RevokeRefreshToken(ctx, token))
	_, err = r.CheckRefreshToken(ctx, token)
	require.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRefreshTokenExpiry(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	const token = "expired-token"
	require.NoError(t, r.SaveRefreshToken(ctx, token, "jti-2", 7, time.Now().Add(-time.Minute)))

	_, err := r.CheckRefreshToken(ctx, token)
	require.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRefreshTokensStoredHashed(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	const token = "plaintext-refresh-token"
	require.NoError(t, r.SaveRefreshToken(ctx, token, "jti-3", 1, time.Now().Add(time.Hour)))

	var stored models.RefreshToken
	require.NoError(t, r.DB.First(&stored).Error)
	require.NotEqual(t, token, stored.Token)
	require.Equal(t, Sha256Hex(token), stored.Token)
}
