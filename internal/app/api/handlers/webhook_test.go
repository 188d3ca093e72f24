package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/archiver"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/deliverylog"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/reconciler"
	wh "github.com/Sid-web6306/gym-saas-billing/internal/app/service/webhook"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/storage"
	"github.com/Sid-web6306/gym-saas-billing/internal/models"
	cfgpkg "github.com/Sid-web6306/gym-saas-billing/pkg/config"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

const testRazorpaySecret = "whsec_rzp_test"

type memStore struct {
	mu            sync.Mutex
	subscriptions map[string]*models.Subscription
	plans         []*models.SubscriptionPlan
	documents     map[string]*models.Document
	events        int
	deliveries    []models.WebhookDeliveryStatus
	usersByEmail  map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		subscriptions: map[string]*models.Subscription{},
		documents:     map[string]*models.Document{},
		usersByEmail:  map[string]string{},
	}
}

func (m *memStore) Transaction(_ context.Context, fn func(storage.Store) error) error {
	return fn(m)
}

func (m *memStore) FindSubscriptionByExternalID(_ context.Context, provider types.BillingProvider, externalID string) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subscriptions[string(provider)+"/"+externalID]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) SaveSubscription(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == "" {
		sub.ID = "sub-row-1"
	}
	cp := *sub
	m.subscriptions[string(sub.Provider)+"/"+sub.ExternalSubscriptionID] = &cp
	return nil
}

func (m *memStore) FindPlanByProviderPriceID(_ context.Context, provider types.BillingProvider, priceID string) (*models.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.Provider == provider && (p.ExternalPriceID == priceID || p.ExternalProductID == priceID) {
			return p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) InsertSubscriptionEvent(_ context.Context, _ *models.SubscriptionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events++
	return nil
}

func (m *memStore) InsertDocument(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[doc.ExternalID]; ok {
		return storage.ErrDuplicate
	}
	m.documents[doc.ExternalID] = doc
	return nil
}

func (m *memStore) InsertWebhookDelivery(_ context.Context, entry *models.WebhookDeliveryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, entry.Status)
	return nil
}

// deliveryStatuses snapshots the log statuses; delivery writes are async.
func (m *memStore) deliveryStatuses() []models.WebhookDeliveryStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.WebhookDeliveryStatus, len(m.deliveries))
	copy(out, m.deliveries)
	return out
}

func (m *memStore) GetUserIDByEmail(_ context.Context, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.usersByEmail[email]; ok {
		return id, nil
	}
	return "", storage.ErrNotFound
}

type noDirectory struct{}

func (noDirectory) CustomerEmail(_ context.Context, _ types.BillingProvider, _ string) (string, error) {
	return "", storage.ErrNotFound
}

func newTestRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	cfg := &cfgpkg.Config{
		Stripe:   cfgpkg.StripeConfig{WebhookSecret: "whsec_stripe_test"},
		Razorpay: cfgpkg.RazorpayConfig{WebhookSecret: testRazorpaySecret},
	}
	rec := reconciler.NewService(store, noDirectory{}, log)
	arch := archiver.New(store, rec, log)
	dlog := deliverylog.New(store, log)
	handler := wh.NewHandler(cfg, rec, arch, dlog, log)

	r := gin.New()
	RegisterWebhookRoutes(r.Group("/api/v1/webhooks"), handler)
	return r
}

func razorpaySign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testRazorpaySecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(r *gin.Engine, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRazorpayWebhook_ActivatesSubscription(t *testing.T) {
	store := newMemStore()
	store.plans = append(store.plans, &models.SubscriptionPlan{
		ID:              "plan-pro",
		Price:           299900,
		Currency:        "INR",
		BillingCycle:    types.BillingCycleMonthly,
		Provider:        types.BillingProviderRazorpay,
		ExternalPriceID: "plan_RZP_PRO",
	})
	r := newTestRouter(store)

	body := []byte(`{
		"event": "subscription.activated",
		"created_at": 1756623600,
		"payload": {
			"subscription": {
				"entity": {
					"id": "sub_rzp_1",
					"plan_id": "plan_RZP_PRO",
					"customer_id": "cust_rzp_1",
					"status": "active",
					"current_start": 1756623600,
					"current_end": 1759215600,
					"notes": {"userId": "user-42"}
				}
			}
		}
	}`)

	w := postWebhook(r, "/api/v1/webhooks/razorpay", body, map[string]string{
		"X-Razorpay-Signature": razorpaySign(body),
		"X-Razorpay-Event-Id":  "evt_rzp_1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"received":true`)
	require.Contains(t, w.Body.String(), "subscription.activated")

	sub, err := store.FindSubscriptionByExternalID(context.Background(), types.BillingProviderRazorpay, "sub_rzp_1")
	require.NoError(t, err)
	require.Equal(t, "user-42", sub.UserID)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
}

func TestRazorpayWebhook_BadSignatureWritesNothing(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)

	body := []byte(`{"event": "subscription.activated", "payload": {"subscription": {"entity": {"id": "sub_x", "notes": {"userId": "u"}}}}}`)
	w := postWebhook(r, "/api/v1/webhooks/razorpay", body, map[string]string{
		"X-Razorpay-Signature": "deadbeef",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, store.subscriptions)
	require.Zero(t, store.events)
}

func TestRazorpayWebhook_MissingSignatureRejected(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)

	w := postWebhook(r, "/api/v1/webhooks/razorpay", []byte(`{}`), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStripeWebhook_BadSignatureRejected(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)

	body := []byte(`{"id": "evt_1", "type": "customer.subscription.created"}`)
	w := postWebhook(r, "/api/v1/webhooks/stripe", body, map[string]string{
		"Stripe-Signature": "t=123,v1=bogus",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, store.subscriptions)
}

func TestRazorpayWebhook_UnknownEventStillAcked(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)

	body := []byte(`{"event": "refund.processed", "payload": {}}`)
	w := postWebhook(r, "/api/v1/webhooks/razorpay", body, map[string]string{
		"X-Razorpay-Signature": razorpaySign(body),
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"received":true`)
	require.Empty(t, store.subscriptions)

	// the delivery log marks it ignored, not handled
	require.Eventually(t, func() bool {
		for _, s := range store.deliveryStatuses() {
			if s == models.WebhookDeliveryStatusIgnored {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	for _, s := range store.deliveryStatuses() {
		require.NotEqual(t, models.WebhookDeliveryStatusHandled, s)
	}
}

func TestRazorpayWebhook_DuplicateInvoiceArchivedOnce(t *testing.T) {
	store := newMemStore()
	store.subscriptions["razorpay/sub_rzp_1"] = &models.Subscription{
		ID:                     "s-1",
		UserID:                 "user-42",
		Provider:               types.BillingProviderRazorpay,
		ExternalSubscriptionID: "sub_rzp_1",
		Status:                 types.SubscriptionStatusActive,
	}
	r := newTestRouter(store)

	body := []byte(`{
		"event": "invoice.paid",
		"payload": {
			"invoice": {
				"entity": {
					"id": "inv_rzp_1",
					"subscription_id": "sub_rzp_1",
					"amount": 299900,
					"currency": "INR",
					"status": "paid",
					"short_url": "https://rzp.io/i/abc"
				}
			}
		}
	}`)
	headers := map[string]string{"X-Razorpay-Signature": razorpaySign(body)}

	w1 := postWebhook(r, "/api/v1/webhooks/razorpay", body, headers)
	w2 := postWebhook(r, "/api/v1/webhooks/razorpay", body, headers)

	require.Equal(t, http.StatusOK, w1.Code)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Len(t, store.documents, 1)
	require.Equal(t, "user-42", store.documents["inv_rzp_1"].UserID)
}
