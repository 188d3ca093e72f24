package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookDeliveryStatus string

const (
	WebhookDeliveryStatusReceived     WebhookDeliveryStatus = "received"
	WebhookDeliveryStatusHandled      WebhookDeliveryStatus = "handled"
	WebhookDeliveryStatusIgnored      WebhookDeliveryStatus = "ignored"
	WebhookDeliveryStatusHandleFailed WebhookDeliveryStatus = "handle_failed"
)

// WebhookDeliveryLog records every inbound delivery, before and after
// dispatch. Distinct from SubscriptionEvent: a delivery is logged even when no
// internal subscription can be resolved.
type WebhookDeliveryLog struct {
	ID         string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Provider   string                `gorm:"column:provider;type:varchar(32);not null" json:"provider"`
	TraceID    string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	WebhookID  string                `gorm:"column:webhook_id;type:varchar(128)" json:"webhook_id"`
	EventType  string                `gorm:"column:event_type;type:varchar(128)" json:"event_type"`
	ReceivedAt time.Time             `gorm:"column:received_at" json:"received_at"`
	Data       datatypes.JSON        `gorm:"column:data;type:jsonb" json:"data"`
	Result     *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status     WebhookDeliveryStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func (WebhookDeliveryLog) TableName() string { return "webhook_delivery_log" }
