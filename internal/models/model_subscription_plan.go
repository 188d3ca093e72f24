package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// SubscriptionPlan is a catalog entry. The webhook subsystem only reads it to
// resolve a provider price/product id to an internal plan.
type SubscriptionPlan struct {
	ID           string             `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Name         string             `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Price        int64              `gorm:"column:price;type:bigint;not null" json:"price"`
	Currency     string             `gorm:"column:currency;type:varchar(16);not null" json:"currency"`
	BillingCycle types.BillingCycle `gorm:"column:billing_cycle;type:varchar(16);not null" json:"billing_cycle"`
	Features     datatypes.JSONMap  `gorm:"column:features;type:jsonb;default:'{}'" json:"features"`

	Provider types.BillingProvider `gorm:"column:provider;type:varchar(32);not null;uniqueIndex:unique_provider_external_price_id,priority:1" json:"provider"`
	// ExternalProductID is the provider's product/plan id (Stripe product,
	// Razorpay plan).
	ExternalProductID string `gorm:"column:external_product_id;type:varchar(128)" json:"external_product_id"`
	// ExternalPriceID is what subscription payloads reference.
	ExternalPriceID string `gorm:"column:external_price_id;type:varchar(128);not null;uniqueIndex:unique_provider_external_price_id,priority:2" json:"external_price_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plan"
}
