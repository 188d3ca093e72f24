package deliverylog

import (
	"context"

	"go.uber.org/zap"

	"github.com/Sid-web6306/gym-saas-billing/internal/app/storage"
	"github.com/Sid-web6306/gym-saas-billing/internal/models"
	"github.com/Sid-web6306/gym-saas-billing/pkg/logctx"
)

type Service struct {
	store storage.Store
	log   *zap.SugaredLogger
}

func New(store storage.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: store, log: log}
}

// Save asynchronously persists a webhook delivery log entry. Best-effort:
// failures are logged, never surfaced to the webhook response. Nil input is
// ignored.
func (s *Service) Save(ctx context.Context, entry *models.WebhookDeliveryLog) {
	go func() {
		if entry == nil {
			return
		}
		if err := s.store.InsertWebhookDelivery(context.WithoutCancel(ctx), entry); err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save webhook delivery log: %v", err)
		}
	}()
}
