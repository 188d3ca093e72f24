package reconciler

import (
	"context"
	"fmt"

	"github.com/Sid-web6306/gym-saas-billing/internal/app/storage"
	"github.com/Sid-web6306/gym-saas-billing/pkg/logctx"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// metadataUserKeys are the metadata field names under which the checkout flow
// stamps the internal user id (Stripe metadata vs Razorpay notes).
var metadataUserKeys = []string{"userId", "user_id"}

// ResolveUser finds the internal user id for a provider event, stopping at
// the first success:
//  1. explicit user id in event metadata,
//  2. get_user_id_by_email lookup on the event-supplied customer email,
//  3. customer fetch from the provider API, then the email lookup again.
//
// Every step failing is a permanent condition for this event, not a transient
// one; callers log and halt without propagating.
func (s *Service) ResolveUser(ctx context.Context, tx storage.Store, provider types.BillingProvider, metadata map[string]string, email, customerID string) (string, error) {
	for _, key := range metadataUserKeys {
		if id := metadata[key]; id != "" {
			return id, nil
		}
	}

	if email != "" {
		id, err := tx.GetUserIDByEmail(ctx, email)
		if err == nil {
			return id, nil
		}
		logctx.FromCtx(ctx, s.log).Debugw("email_lookup_miss", "provider", provider, "error", err.Error())
	}

	if customerID != "" {
		fetched, err := s.dir.CustomerEmail(ctx, provider, customerID)
		if err != nil {
			return "", fmt.Errorf("customer %s lookup via provider API failed: %w", customerID, err)
		}
		if fetched != "" && fetched != email {
			id, err := tx.GetUserIDByEmail(ctx, fetched)
			if err == nil {
				return id, nil
			}
		}
	}

	return "", fmt.Errorf("no internal user for provider=%s customer=%s", provider, customerID)
}
