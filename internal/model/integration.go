package model

import (
	"time"
)

const (
	IntegrationSheets = "sheets"

	IntegrationStatusConnected    = "connected"
	IntegrationStatusDisconnected = "disconnected"
)

// Integration records the connection state of an external tool for an owner.
// Chat context only advertises a tool's capabilities while the integration is
// connected.
type Integration struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	OwnerID     uint       `json:"owner_id" gorm:"index:idx_integrations_owner_provider,unique;not null"`
	Provider    string     `json:"provider" gorm:"size:50;index:idx_integrations_owner_provider,unique;not null"`
	Status      string     `json:"status" gorm:"size:20;default:'disconnected'"`
	ConnectedAt *time.Time `json:"connected_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Integration) TableName() string {
	return "integrations"
}

func (i *Integration) IsConnected() bool {
	return i.Status == IntegrationStatusConnected
}
