package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// APIKey is an owner-stored provider credential.
type APIKey struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	OwnerID          uint       `json:"owner_id" gorm:"index;not null"`
	Provider         string     `json:"provider" gorm:"size:50;index:idx_api_keys_provider;not null"` // openai, anthropic
	BaseURL          string     `json:"base_url" gorm:"size:500"`
	APIKey           string     `json:"api_key" gorm:"type:text;not null"`
	Priority         int        `json:"priority" gorm:"default:0;index:idx_api_keys_priority"`
	Status           string     `json:"status" gorm:"size:20;default:'enabled';index:idx_api_keys_status"` // enabled/disabled
	RequestCount     int        `json:"request_count" gorm:"default:0"`
	ErrorCount       int        `json:"error_count" gorm:"default:0"`
	LastUsedAt       *time.Time `json:"last_used_at"`
	RateLimitResetAt *time.Time `json:"rate_limit_reset_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (APIKey) TableName() string {
	return "api_keys"
}

// MaskAPIKey returns the key with only the first 3 and last 4 characters visible.
func (a *APIKey) MaskAPIKey() string {
	if len(a.APIKey) <= 7 {
		return "***"
	}
	return a.APIKey[:3] + "***" + a.APIKey[len(a.APIKey)-4:]
}

// IsAvailable reports whether the key may be used for a new call.
func (a *APIKey) IsAvailable() bool {
	if a.Status != "enabled" {
		return false
	}
	if a.RateLimitResetAt != nil && a.RateLimitResetAt.After(time.Now()) {
		return false
	}
	return true
}

func (a *APIKey) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}
