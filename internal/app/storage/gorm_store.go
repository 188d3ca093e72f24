package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Sid-web6306/gym-saas-billing/internal/models"
	"github.com/Sid-web6306/gym-saas-billing/pkg/tool"
	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

type gormStore struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewStore(db *gorm.DB, log *zap.SugaredLogger) Store {
	return &gormStore{db: db, log: log}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, log: s.log})
	})
}

func (s *gormStore) FindSubscriptionByExternalID(ctx context.Context, provider types.BillingProvider, externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("provider = ? AND external_subscription_id = ?", provider, externalID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load subscription by external id: %w", err)
	}
	return &sub, nil
}

func (s *gormStore) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (s *gormStore) FindPlanByProviderPriceID(ctx context.Context, provider types.BillingProvider, priceID string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := s.db.WithContext(ctx).
		Where("provider = ? AND (external_price_id = ? OR external_product_id = ?)", provider, priceID, priceID).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load plan by provider price id: %w", err)
	}
	return &plan, nil
}

func (s *gormStore) InsertSubscriptionEvent(ctx context.Context, event *models.SubscriptionEvent) error {
	if event.ID == "" {
		event.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to insert subscription event: %w", err)
	}
	return nil
}

func (s *gormStore) InsertDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (s *gormStore) InsertWebhookDelivery(ctx context.Context, entry *models.WebhookDeliveryLog) error {
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert webhook delivery log: %w", err)
	}
	return nil
}

func (s *gormStore) GetUserIDByEmail(ctx context.Context, email string) (string, error) {
	var userID string
	err := s.db.WithContext(ctx).Raw("SELECT get_user_id_by_email(?)", email).Scan(&userID).Error
	if err != nil {
		return "", fmt.Errorf("get_user_id_by_email failed: %w", err)
	}
	if userID == "" {
		return "", ErrNotFound
	}
	return userID, nil
}

var Module = fx.Options(
	fx.Provide(NewStore),
)
