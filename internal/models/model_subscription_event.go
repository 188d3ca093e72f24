package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/Sid-web6306/gym-saas-billing/pkg/types"
)

// SubscriptionEventData is the free-form payload stored with each audit row:
// original provider ids plus the before/after status of the transition.
type SubscriptionEventData struct {
	Provider               types.BillingProvider    `json:"provider"`
	ExternalSubscriptionID string                   `json:"external_subscription_id"`
	ExternalCustomerID     string                   `json:"external_customer_id,omitempty"`
	ExternalPriceID        string                   `json:"external_price_id,omitempty"`
	RawType                string                   `json:"raw_type"`
	StatusBefore           types.SubscriptionStatus `json:"status_before,omitempty"`
	StatusAfter            types.SubscriptionStatus `json:"status_after,omitempty"`
	PlanBefore             string                   `json:"plan_before,omitempty"`
	PlanAfter              string                   `json:"plan_after,omitempty"`
	CycleBefore            types.BillingCycle       `json:"cycle_before,omitempty"`
	CycleAfter             types.BillingCycle       `json:"cycle_after,omitempty"`
}

// SubscriptionEvent records one reconciled webhook per subscription.
// Use case: observability and duplicate diagnosis, not replay.
type SubscriptionEvent struct {
	ID             string                                      `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string                                      `gorm:"column:subscription_id;type:uuid;not null;index:idx_subscription_id_id,priority:1" json:"subscription_id"`
	EventType      types.SubscriptionEventType                 `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	EventData      datatypes.JSONType[*SubscriptionEventData]  `gorm:"column:event_data;type:jsonb;default:'null'" json:"event_data"`
	// WebhookID is the provider's event id for this delivery.
	WebhookID  string    `gorm:"column:webhook_id;type:varchar(128);not null" json:"webhook_id"`
	DurationMs int64     `gorm:"column:duration_ms;type:bigint" json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

func (SubscriptionEvent) TableName() string {
	return "subscription_event"
}
