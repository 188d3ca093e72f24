package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// Subscription is a gym owner's billing relationship with a plan. One row per
// provider-side subscription; rows are never deleted, cancellation is a status
// transition.
type Subscription struct {
	ID     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	GymID  string `gorm:"column:gym_id;type:varchar(64)" json:"gym_id"`
	PlanID string `gorm:"column:plan_id;type:uuid;not null" json:"plan_id"`

	Status       types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	BillingCycle types.BillingCycle       `gorm:"column:billing_cycle;type:varchar(16);not null" json:"billing_cycle"`

	CurrentPeriodStart *time.Time `gorm:"column:current_period_start;default:null" json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `gorm:"column:current_period_end;default:null" json:"current_period_end"`
	TrialStart         *time.Time `gorm:"column:trial_start;default:null" json:"trial_start"`
	TrialEnd           *time.Time `gorm:"column:trial_end;default:null" json:"trial_end"`

	// Provider is the billing provider that owns the external ids below.
	Provider types.BillingProvider `gorm:"column:provider;type:varchar(32);not null;uniqueIndex:unique_provider_external_subscription_id,priority:1" json:"provider"`
	// ExternalSubscriptionID maps at most one provider subscription onto one row.
	ExternalSubscriptionID string `gorm:"column:external_subscription_id;type:varchar(128);not null;uniqueIndex:unique_provider_external_subscription_id,priority:2" json:"external_subscription_id"`
	ExternalCustomerID     string `gorm:"column:external_customer_id;type:varchar(128)" json:"external_customer_id"`
	ExternalPriceID        string `gorm:"column:external_price_id;type:varchar(128)" json:"external_price_id"`

	Amount   int64  `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency string `gorm:"column:currency;type:varchar(16)" json:"currency"`

	CanceledAt *time.Time `gorm:"column:canceled_at;default:null" json:"canceled_at"`
	PausedAt   *time.Time `gorm:"column:paused_at;default:null" json:"paused_at"`
	EndedAt    *time.Time `gorm:"column:ended_at;default:null" json:"ended_at"`

	Metadata datatypes.JSONMap `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}
