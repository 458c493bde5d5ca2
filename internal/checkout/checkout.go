// Package checkout drives one payment attempt: raise list in, provider
// session out, and ownership rows once the provider confirms. Confirmation
// can arrive twice (signed webhook and client success callback); both paths
// write through the same conflict-ignoring insert keyed on the checkout
// reference, so the second arrival changes nothing.
package checkout

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/elefund/elephant-raiser/internal/cart"
	"github.com/elefund/elephant-raiser/internal/logging"
	"github.com/elefund/elephant-raiser/internal/models"
	"github.com/elefund/elephant-raiser/internal/payment"
	"github.com/elefund/elephant-raiser/internal/repo"
)

const EventCheckoutCompleted = "checkout.session.completed"

var ErrEmptyList = errors.New("raise list is empty")

type Provider interface {
	CreateSession(ctx context.Context, p payment.SessionParams) (string, error)
	ParseWebhook(payload []byte, sigHeader string) (*payment.WebhookEvent, error)
}

type Service struct {
	Repo          *repo.GormRepo
	Provider      Provider
	PublicBaseURL string
}

// CreateSession requests a hosted checkout session for the raise list. The
// provider is never contacted for an empty list. Session metadata carries the
// user and elephant ids so the webhook can persist ownership on its own.
func (s *Service) CreateSession(ctx context.Context, user *models.User, list cart.List) (string, error) {
	if len(list) == 0 {
		return "", ErrEmptyList
	}

	lineItems := make([]payment.LineItem, 0, len(list))
	for _, entry := range list {
		lineItems = append(lineItems, payment.LineItem{PriceID: entry.PriceID, Quantity: 1})
	}

	return s.Provider.CreateSession(ctx, payment.SessionParams{
		CustomerEmail: user.Email,
		SuccessURL:    s.PublicBaseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.PublicBaseURL + "/cancel",
		LineItems:     lineItems,
		Metadata: map[string]string{
			"user_id":      strconv.FormatUint(uint64(user.ID), 10),
			"elephant_ids": joinIDs(list.ElephantIDs()),
		},
	})
}

// Confirm persists one raising per list entry under checkoutRef and reports
// how many rows were actually created (zero when the webhook got there
// first). ErrEmptyList signals a success callback without a preceding
// checkout.
func (s *Service) Confirm(ctx context.Context, userID uint, checkoutRef string, list cart.List) (int64, error) {
	if len(list) == 0 {
		return 0, ErrEmptyList
	}
	if checkoutRef == "" {
		// No session id on the callback; nothing to reconcile against, so
		// the rows get their own reference.
		checkoutRef = "local-" + uuid.NewString()
	}

	ids := make([]uint, 0, len(list))
	for _, entry := range list {
		if _, err := s.Repo.GetElephant(ctx, entry.ID); err != nil {
			return 0, err
		}
		ids = append(ids, entry.ID)
	}

	return s.Repo.CreateRaisings(ctx, userID, ids, checkoutRef)
}

// HandleWebhook verifies the provider event and, for completed checkouts,
// persists raisings from the session metadata. Verification failures return
// an error with no side effects.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (*payment.WebhookEvent, int64, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.webhook")

	event, err := s.Provider.ParseWebhook(payload, sigHeader)
	if err != nil {
		return nil, 0, err
	}

	if event.Type != EventCheckoutCompleted {
		return event, 0, nil
	}

	userID, elephantIDs, ok := parseSessionMetadata(event.Metadata)
	if !ok {
		// Acknowledged so the provider stops retrying; a session created
		// outside this service carries no metadata we can act on.
		l.Warn("completed_session_without_metadata", "checkout_ref", event.CheckoutRef)
		return event, 0, nil
	}

	created, err := s.Repo.CreateRaisings(ctx, userID, elephantIDs, event.CheckoutRef)
	if err != nil {
		return event, 0, err
	}
	l.Info("raisings_persisted", "checkout_ref", event.CheckoutRef, "created", created)
	return event, created, nil
}

func joinIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}

func parseSessionMetadata(meta map[string]string) (uint, []uint, bool) {
	if meta == nil {
		return 0, nil, false
	}
	userID, err := strconv.ParseUint(meta["user_id"], 10, 64)
	if err != nil {
		return 0, nil, false
	}

	var ids []uint
	for _, part := range strings.Split(meta["elephant_ids"], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return 0, nil, false
		}
		ids = append(ids, uint(id))
	}
	if len(ids) == 0 {
		return 0, nil, false
	}
	return uint(userID), ids, true
}
