package archiver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/reconciler"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/storage"
	"github.com/Sid-web6306/gym-saas-billing/internal/models"
	"github.com/Sid-web6306/gym-saas-billing/pkg/logctx"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// Service persists durable references to provider-hosted invoices. Archival is
// best-effort: it never blocks subscription-state correctness, and duplicate
// archival attempts count as success.
type Service struct {
	store storage.Store
	rec   *reconciler.Service
	log   *zap.SugaredLogger
}

func New(store storage.Store, rec *reconciler.Service, log *zap.SugaredLogger) *Service {
	return &Service{store: store, rec: rec, log: log}
}

// Archive stores the invoice reference carried by an invoice event. All
// failures are swallowed after logging; the webhook response must not depend
// on archival.
func (s *Service) Archive(ctx context.Context, ev *types.NormalizedBillingEvent) {
	inv := ev.Invoice
	if inv == nil || inv.ExternalID == "" {
		return
	}
	log := logctx.FromCtx(ctx, s.log)

	userID, err := s.resolveOwner(ctx, ev)
	if err != nil {
		log.Errorw("invoice_owner_unresolved",
			"provider", ev.Provider, "external_invoice_id", inv.ExternalID, "error", err.Error())
		return
	}

	doc := &models.Document{
		UserID:       userID,
		Type:         models.DocumentTypeInvoice,
		Title:        fmt.Sprintf("Invoice %s", inv.ExternalID),
		ExternalID:   inv.ExternalID,
		HostedURL:    inv.HostedURL,
		DownloadURL:  inv.DownloadURL,
		Amount:       inv.Amount,
		Currency:     inv.Currency,
		Status:       inv.Status,
		DocumentDate: types.EpochTime(inv.IssuedAt),
		Tags:         datatypes.JSON([]byte(`["billing","invoice"]`)),
		Metadata: datatypes.JSONMap{
			"provider":                 string(ev.Provider),
			"external_subscription_id": inv.ExternalSubscriptionID,
		},
	}

	if err := s.store.InsertDocument(ctx, doc); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			log.Debugw("invoice_already_archived", "external_invoice_id", inv.ExternalID)
			return
		}
		log.Errorw("invoice_archive_failed",
			"provider", ev.Provider, "external_invoice_id", inv.ExternalID,
			"user_id", userID, "error", err.Error())
	}
}

// resolveOwner prefers the subscription row's user id, falling back to the
// email resolution chain when the subscription is not known yet.
func (s *Service) resolveOwner(ctx context.Context, ev *types.NormalizedBillingEvent) (string, error) {
	inv := ev.Invoice
	if inv.ExternalSubscriptionID != "" {
		sub, err := s.store.FindSubscriptionByExternalID(ctx, ev.Provider, inv.ExternalSubscriptionID)
		if err == nil {
			return sub.UserID, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return "", err
		}
	}
	return s.rec.ResolveUser(ctx, s.store, ev.Provider, nil, inv.CustomerEmail, inv.ExternalCustomerID)
}
