package archiver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/reconciler"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/storage"
	"github.com/Sid-web6306/gym-saas-billing/internal/models"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

type stubStore struct {
	subs         map[string]*models.Subscription // external id
	documents    map[string]*models.Document     // external id
	usersByEmail map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{
		subs:         map[string]*models.Subscription{},
		documents:    map[string]*models.Document{},
		usersByEmail: map[string]string{},
	}
}

func (s *stubStore) Transaction(_ context.Context, fn func(storage.Store) error) error {
	return fn(s)
}

func (s *stubStore) FindSubscriptionByExternalID(_ context.Context, _ types.BillingProvider, externalID string) (*models.Subscription, error) {
	if sub, ok := s.subs[externalID]; ok {
		return sub, nil
	}
	return nil, storage.ErrNotFound
}

func (s *stubStore) SaveSubscription(_ context.Context, _ *models.Subscription) error {
	panic("not used")
}

func (s *stubStore) FindPlanByProviderPriceID(_ context.Context, _ types.BillingProvider, _ string) (*models.SubscriptionPlan, error) {
	panic("not used")
}

func (s *stubStore) InsertSubscriptionEvent(_ context.Context, _ *models.SubscriptionEvent) error {
	panic("not used")
}

func (s *stubStore) InsertDocument(_ context.Context, doc *models.Document) error {
	if _, ok := s.documents[doc.ExternalID]; ok {
		return storage.ErrDuplicate
	}
	s.documents[doc.ExternalID] = doc
	return nil
}

func (s *stubStore) InsertWebhookDelivery(_ context.Context, _ *models.WebhookDeliveryLog) error {
	panic("not used")
}

func (s *stubStore) GetUserIDByEmail(_ context.Context, email string) (string, error) {
	if id, ok := s.usersByEmail[email]; ok {
		return id, nil
	}
	return "", storage.ErrNotFound
}

type noDirectory struct{}

func (noDirectory) CustomerEmail(_ context.Context, _ types.BillingProvider, _ string) (string, error) {
	return "", storage.ErrNotFound
}

func newTestArchiver(store *stubStore) *Service {
	log := zap.NewNop().Sugar()
	rec := reconciler.NewService(store, noDirectory{}, log)
	return New(store, rec, log)
}

func invoiceEvent() *types.NormalizedBillingEvent {
	return &types.NormalizedBillingEvent{
		Provider: types.BillingProviderStripe,
		Kind:     types.EventInvoicePaymentSucceeded,
		RawType:  "invoice.payment_succeeded",
		Invoice: &types.InvoiceEntity{
			ExternalID:             "in_1",
			ExternalSubscriptionID: "sub_1",
			HostedURL:              "https://invoice.stripe.com/i/abc",
			DownloadURL:            "https://pay.stripe.com/invoice/abc/pdf",
			Amount:                 4900,
			Currency:               "usd",
			Status:                 "paid",
			IssuedAt:               1756623600,
		},
	}
}

func TestArchive_StoresInvoiceDocument(t *testing.T) {
	store := newStubStore()
	store.subs["sub_1"] = &models.Subscription{ID: "s-1", UserID: "user-42"}
	svc := newTestArchiver(store)

	svc.Archive(context.Background(), invoiceEvent())

	doc, ok := store.documents["in_1"]
	require.True(t, ok)
	require.Equal(t, "user-42", doc.UserID)
	require.Equal(t, models.DocumentTypeInvoice, doc.Type)
	require.Equal(t, "Invoice in_1", doc.Title)
	require.Equal(t, "https://invoice.stripe.com/i/abc", doc.HostedURL)
	require.Equal(t, int64(4900), doc.Amount)
	require.NotNil(t, doc.DocumentDate)
	require.Equal(t, "stripe", doc.Metadata["provider"])
}

func TestArchive_DuplicateCountsAsSuccess(t *testing.T) {
	store := newStubStore()
	store.subs["sub_1"] = &models.Subscription{ID: "s-1", UserID: "user-42"}
	svc := newTestArchiver(store)

	svc.Archive(context.Background(), invoiceEvent())
	svc.Archive(context.Background(), invoiceEvent())

	require.Len(t, store.documents, 1)
}

func TestArchive_OwnerViaEmailWhenSubscriptionUnknown(t *testing.T) {
	store := newStubStore()
	store.usersByEmail["owner@gym.example"] = "user-9"
	svc := newTestArchiver(store)

	ev := invoiceEvent()
	ev.Invoice.ExternalSubscriptionID = ""
	ev.Invoice.CustomerEmail = "owner@gym.example"
	svc.Archive(context.Background(), ev)

	doc, ok := store.documents["in_1"]
	require.True(t, ok)
	require.Equal(t, "user-9", doc.UserID)
}

func TestArchive_UnresolvedOwnerWritesNothing(t *testing.T) {
	store := newStubStore()
	svc := newTestArchiver(store)

	svc.Archive(context.Background(), invoiceEvent())
	require.Empty(t, store.documents)
}

func TestArchive_IgnoresEventsWithoutInvoice(t *testing.T) {
	store := newStubStore()
	svc := newTestArchiver(store)

	svc.Archive(context.Background(), &types.NormalizedBillingEvent{Kind: types.EventInvoiceFinalized})
	require.Empty(t, store.documents)
}
