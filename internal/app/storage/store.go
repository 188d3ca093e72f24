package storage

import (
	"context"
	"errors"

	"github.com/Sid-web6306/gym-saas-billing/internal/models"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// ErrNotFound is returned by Find* methods when no row matches.
var ErrNotFound = errors.New("storage: record not found")

// ErrDuplicate is returned by insert methods on unique-constraint violations.
var ErrDuplicate = errors.New("storage: duplicate key")

// Store is the typed repository the webhook subsystem talks to. It replaces
// ad-hoc casts around a generic database client with explicit methods; the
// privileged user lookup stays behind a server-side SQL function.
type Store interface {
	// Transaction runs fn against a store bound to one database transaction.
	// The reconciler wraps its read-modify-write in this so concurrent
	// deliveries for the same external subscription id cannot interleave.
	Transaction(ctx context.Context, fn func(Store) error) error

	FindSubscriptionByExternalID(ctx context.Context, provider types.BillingProvider, externalID string) (*models.Subscription, error)
	SaveSubscription(ctx context.Context, sub *models.Subscription) error

	FindPlanByProviderPriceID(ctx context.Context, provider types.BillingProvider, priceID string) (*models.SubscriptionPlan, error)

	InsertSubscriptionEvent(ctx context.Context, event *models.SubscriptionEvent) error
	InsertDocument(ctx context.Context, doc *models.Document) error
	InsertWebhookDelivery(ctx context.Context, entry *models.WebhookDeliveryLog) error

	// GetUserIDByEmail resolves an internal user id from a billing-provider
	// email via the get_user_id_by_email server-side function. Trusted lookup;
	// never expose to untrusted callers.
	GetUserIDByEmail(ctx context.Context, email string) (string, error)
}
