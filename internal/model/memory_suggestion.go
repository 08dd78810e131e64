package model

import (
	"time"
)

const (
	SuggestionStatusPending  = "pending"
	SuggestionStatusApproved = "approved"
	SuggestionStatusRejected = "rejected"
)

// MemorySuggestion is a memory proposed by a persona during conversation.
// Personas never write memories directly; the owner approves or rejects the
// suggestion, and approval materializes a Memory with provenance intact.
type MemorySuggestion struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	OwnerID    uint       `json:"owner_id" gorm:"index;not null"`
	PersonaID  uint       `json:"persona_id" gorm:"index;not null"`
	ProjectID  *uint      `json:"project_id" gorm:"index"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	Category   string     `json:"category" gorm:"size:100"`
	Status     string     `json:"status" gorm:"size:20;default:'pending';index"` // pending/approved/rejected
	ResolvedAt *time.Time `json:"resolved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (MemorySuggestion) TableName() string {
	return "memory_suggestions"
}

// IsResolved reports whether the suggestion has left the pending state.
func (s *MemorySuggestion) IsResolved() bool {
	return s.Status != SuggestionStatusPending
}
