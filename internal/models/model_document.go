package models

import (
	"time"

	"gorm.io/datatypes"
)

type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
)

// Document is a durable reference to a provider-hosted invoice or receipt.
// Unique per external invoice id; duplicate archival attempts are treated as
// success by the archiver.
type Document struct {
	ID     string       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string       `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Type   DocumentType `gorm:"column:type;type:varchar(32);not null" json:"type"`
	Title  string       `gorm:"column:title;type:varchar(256)" json:"title"`

	ExternalID  string `gorm:"column:external_id;type:varchar(128);not null;uniqueIndex" json:"external_id"`
	HostedURL   string `gorm:"column:hosted_url;type:text" json:"hosted_url"`
	DownloadURL string `gorm:"column:download_url;type:text" json:"download_url"`

	Amount   int64  `gorm:"column:amount;type:bigint" json:"amount"`
	Currency string `gorm:"column:currency;type:varchar(16)" json:"currency"`
	Status   string `gorm:"column:status;type:varchar(32)" json:"status"`

	DocumentDate *time.Time        `gorm:"column:document_date;default:null" json:"document_date"`
	Tags         datatypes.JSON    `gorm:"column:tags;type:jsonb;default:'[]'" json:"tags"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Document) TableName() string {
	return "document"
}
