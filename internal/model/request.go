package model

import (
	"encoding/json"
	"time"
)

// Request is a structured piece of work submitted to the consulting team.
// Status moves pending -> processing -> completed/failed; the transitions are
// enforced by the request state machine, never written ad hoc.
type Request struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	RequestID    string     `json:"request_id" gorm:"size:64;uniqueIndex;not null"` // UUID
	OwnerID      uint       `json:"owner_id" gorm:"index;not null"`
	ProjectID    *uint      `json:"project_id" gorm:"index"`
	Title        string     `json:"title" gorm:"size:255;not null"`
	Description  string     `json:"description" gorm:"type:text"`
	RequestType  string     `json:"request_type" gorm:"size:50;index;not null"` // roadmap, analysis, audit, review, research, custom
	ReferenceURL string     `json:"reference_url" gorm:"size:500"`
	Status       string     `json:"status" gorm:"size:50;default:pending;index"`
	ErrorMsg     string     `json:"error_msg" gorm:"size:1000"`
	TeamInvolved string     `json:"team_involved" gorm:"type:text"` // JSON array of role slugs
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Request) TableName() string {
	return "requests"
}

// TeamRoles decodes the stored role slugs of team members that contributed.
func (r *Request) TeamRoles() []string {
	if r.TeamInvolved == "" {
		return []string{}
	}
	var roles []string
	if err := json.Unmarshal([]byte(r.TeamInvolved), &roles); err != nil {
		return []string{}
	}
	return roles
}

// SetTeamRoles stores the contributing role slugs as a JSON array.
func (r *Request) SetTeamRoles(roles []string) {
	if roles == nil {
		roles = []string{}
	}
	data, err := json.Marshal(roles)
	if err != nil {
		return
	}
	r.TeamInvolved = string(data)
}

// RequestMessage is one entry of a request's processing trail. Internal
// messages record team deliberation; non-internal ones are shown to the user.
type RequestMessage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RequestID  uint      `json:"request_id" gorm:"index;not null"`
	OwnerID    uint      `json:"owner_id" gorm:"index;not null"`
	Role       string    `json:"role" gorm:"size:20;not null"` // user, assistant, system
	SenderName string    `json:"sender_name" gorm:"size:255"`
	TeamRole   string    `json:"team_role" gorm:"size:100"`
	Content    string    `json:"content" gorm:"type:text"`
	IsInternal bool      `json:"is_internal" gorm:"default:false;index"`
	CreatedAt  time.Time `json:"created_at"`
}

func (RequestMessage) TableName() string {
	return "request_messages"
}

// Deliverable is the synthesized output of a completed request. Content is
// the synthesizer's markdown verbatim; rows are never edited after creation.
type Deliverable struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	RequestID       uint      `json:"request_id" gorm:"index;not null"`
	OwnerID         uint      `json:"owner_id" gorm:"index;not null"`
	Title           string    `json:"title" gorm:"size:255;not null"`
	Content         string    `json:"content" gorm:"type:text"`
	DeliverableType string    `json:"deliverable_type" gorm:"size:50;index"`
	Version         int       `json:"version" gorm:"default:1"`
	IsDraft         bool      `json:"is_draft" gorm:"default:false"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Deliverable) TableName() string {
	return "deliverables"
}
