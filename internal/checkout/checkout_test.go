package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elefund/elephant-raiser/internal/cart"
	"github.com/elefund/elephant-raiser/internal/db"
	"github.com/elefund/elephant-raiser/internal/models"
	"github.com/elefund/elephant-raiser/internal/payment"
	"github.com/elefund/elephant-raiser/internal/repo"
)

type fakeProvider struct {
	createCalls int
	lastParams  payment.SessionParams
	sessionID   string
	createErr   error

	webhookEvent *payment.WebhookEvent
	webhookErr   error
}

func (f *fakeProvider) CreateSession(ctx context.Context, p payment.SessionParams) (string, error) {
	f.createCalls++
	f.lastParams = p
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.sessionID, nil
}

func (f *fakeProvider) ParseWebhook(payload []byte, sigHeader string) (*payment.WebhookEvent, error) {
	return f.webhookEvent, f.webhookErr
}

func newTestService(t *testing.T) (*Service, *fakeProvider) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	provider := &fakeProvider{sessionID: "cs_test_abc"}
	svc := &Service{
		Repo:          &repo.GormRepo{DB: gdb},
		Provider:      provider,
		PublicBaseURL: "https://raiser.test",
	}
	return svc, provider
}

func seed(t *testing.T, svc *Service) (*models.User, cart.List) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, svc.Repo.CreateUser(ctx, user))

	mosha := &models.Elephant{Name: "Mosha", Price: 10, PriceID: "price_mosha"}
	motala := &models.Elephant{Name: "Motala", Price: 15, PriceID: "price_motala"}
	require.NoError(t, svc.Repo.CreateElephant(ctx, mosha))
	require.NoError(t, svc.Repo.CreateElephant(ctx, motala))

	return user, cart.List{cart.SnapshotOf(mosha), cart.SnapshotOf(motala)}
}

func TestCreateSessionEmptyListNeverReachesProvider(t *testing.T) {
	t.Parallel()

	svc, provider := newTestService(t)
	user, _ := seed(t, svc)

	_, err := svc.CreateSession(context.Background(), user, nil)
	require.ErrorIs(t, err, ErrEmptyList)
	require.Zero(t, provider.createCalls)
}

func TestCreateSessionBuildsLineItemsAndMetadata(t *testing.T) {
	t.Parallel()

	svc, provider := newTestService(t)
	user, list := seed(t, svc)

	sessionID, err := svc.CreateSession(context.Background(), user, list)
	require.NoError(t, err)
	require.Equal(t, "cs_test_abc", sessionID)
	require.Equal(t, 1, provider.createCalls)

	p := provider.lastParams
	require.Equal(t, "alice@example.com", p.CustomerEmail)
	require.Equal(t, "https://raiser.test/success?session_id={CHECKOUT_SESSION_ID}", p.SuccessURL)
	require.Equal(t, "https://raiser.test/cancel", p.CancelURL)
	require.Equal(t, []payment.LineItem{
		{PriceID: "price_mosha", Quantity: 1},
		{PriceID: "price_motala", Quantity: 1},
	}, p.LineItems)
	require.Equal(t, "1", p.Metadata["user_id"])
	require.Equal(t, "1,2", p.Metadata["elephant_ids"])
}

func TestCreateSessionProviderError(t *testing.T) {
	t.Parallel()

	svc, provider := newTestService(t)
	provider.createErr = errors.New("no such price")
	user, list := seed(t, svc)

	_, err := svc.CreateSession(context.Background(), user, list)
	require.EqualError(t, err, "no such price")
}

func TestConfirmPersistsOncePerReference(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	user, list := seed(t, svc)
	ctx := context.Background()

	created, err := svc.Confirm(ctx, user.ID, "cs_test_abc", list)
	require.NoError(t, err)
	require.Equal(t, int64(2), created)

	// The callback can fire again; nothing new is written.
	created, err = svc.Confirm(ctx, user.ID, "cs_test_abc", list)
	require.NoError(t, err)
	require.Zero(t, created)

	raisings, err := svc.Repo.ListRaisingsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, raisings, 2)
}

func TestConfirmEmptyList(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	user, _ := seed(t, svc)

	_, err := svc.Confirm(context.Background(), user.ID, "cs_test_abc", nil)
	require.ErrorIs(t, err, ErrEmptyList)
}

func TestConfirmWithoutReferenceStillPersists(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	user, list := seed(t, svc)
	ctx := context.Background()

	created, err := svc.Confirm(ctx, user.ID, "", list)
	require.NoError(t, err)
	require.Equal(t, int64(2), created)

	raisings, err := svc.Repo.ListRaisingsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, raisings, 2)
	require.Contains(t, raisings[0].CheckoutRef, "local-")
}

func TestConfirmUnknownElephant(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	user, _ := seed(t, svc)

	ghost := cart.List{{ID: 99, Name: "Ghost", Price: 1, PriceID: "price_ghost"}}
	_, err := svc.Confirm(context.Background(), user.ID, "cs_test_abc", ghost)
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestHandleWebhookPersistsFromMetadata(t *testing.T) {
	t.Parallel()

	svc, provider := newTestService(t)
	user, _ := seed(t, svc)
	ctx := context.Background()

	provider.webhookEvent = &payment.WebhookEvent{
		Type:        EventCheckoutCompleted,
		CheckoutRef: "cs_test_abc",
		Metadata:    map[string]string{"user_id": "1", "elephant_ids": "1,2"},
	}

	event, created, err := svc.HandleWebhook(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	require.Equal(t, EventCheckoutCompleted, event.Type)
	require.Equal(t, int64(2), created)

	// Redelivery of the same event is a no-op.
	_, created, err = svc.HandleWebhook(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	require.Zero(t, created)

	raisings, err := svc.Repo.ListRaisingsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, raisings, 2)
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	svc, provider := newTestService(t)
	seed(t, svc)
	provider.webhookErr = errors.New("signature mismatch")

	_, created, err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	require.Error(t, err)
	require.Zero(t, created)
}

func TestHandleWebhookIgnoresOtherEventTypes(t *testing.T) {
	t.Parallel()

	svc, provider := newTestService(t)
	seed(t, svc)
	provider.webhookEvent = &payment.WebhookEvent{Type: "payment_intent.created"}

	event, created, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	require.Equal(t, "payment_intent.created", event.Type)
	require.Zero(t, created)
}

func TestHandleWebhookAcksCompletedSessionWithoutMetadata(t *testing.T) {
	t.Parallel()

	svc, provider := newTestService(t)
	user, _ := seed(t, svc)
	provider.webhookEvent = &payment.WebhookEvent{
		Type:        EventCheckoutCompleted,
		CheckoutRef: "cs_foreign",
	}

	_, created, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	require.Zero(t, created)

	raisings, err := svc.Repo.ListRaisingsByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Empty(t, raisings)
}
