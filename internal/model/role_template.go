package model

import (
	"encoding/json"
	"strings"
	"time"
)

// RoleTemplate is a system-curated role definition personas can adopt.
// Version increments whenever the instruction content changes, so personas
// can detect that an update is available.
type RoleTemplate struct {
	ID                      uint      `json:"id" gorm:"primaryKey"`
	Slug                    string    `json:"slug" gorm:"size:100;uniqueIndex;not null"`
	Name                    string    `json:"name" gorm:"size:255;not null"`
	Description             string    `json:"description" gorm:"size:1000"`
	Purpose                 string    `json:"purpose" gorm:"size:1000"`
	Instructions            string    `json:"instructions" gorm:"type:text"`
	BoundariesDoes          string    `json:"boundaries_does" gorm:"type:text"`     // JSON array
	BoundariesDoesNot       string    `json:"boundaries_does_not" gorm:"type:text"` // JSON array
	RecommendedIntegrations string    `json:"recommended_integrations" gorm:"type:text"`
	RecommendedModel        string    `json:"recommended_model" gorm:"size:255;default:gpt-4"`
	IsDefault               bool      `json:"is_default" gorm:"default:false"`
	IsSystem                bool      `json:"is_system" gorm:"default:false"`
	Version                 int       `json:"version" gorm:"default:1"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (RoleTemplate) TableName() string {
	return "role_templates"
}

// ParseList decodes a JSON string-array column, returning an empty slice on
// malformed content.
func ParseList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	return items
}

// RoleTitle humanizes a role slug: "product_manager" -> "Product Manager".
func RoleTitle(role string) string {
	if role == "" {
		return ""
	}
	words := strings.Split(strings.ReplaceAll(role, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
