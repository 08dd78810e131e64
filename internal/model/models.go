package model

import (
	"time"
)

// Persona is an AI employee owned by a user. A persona can chat in direct
// conversations and project channels, and personas carrying a team role
// (role slug, e.g. "product_manager") participate in request processing.
type Persona struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	OwnerID          uint      `json:"owner_id" gorm:"index;not null"`
	Name             string    `json:"name" gorm:"size:255;not null"`
	Role             string    `json:"role" gorm:"size:100;index"`
	Title            string    `json:"title" gorm:"size:255"`
	Instructions     string    `json:"instructions" gorm:"type:text"`
	UserInstructions string    `json:"user_instructions" gorm:"type:text"`
	Model            string    `json:"model" gorm:"size:255;default:gpt-4"`
	RoleTemplateID   *uint     `json:"role_template_id" gorm:"index"`
	TemplateVersion  int       `json:"template_version" gorm:"default:0"`
	IsDefault        bool      `json:"is_default" gorm:"default:false"`
	IsLead           bool      `json:"is_lead" gorm:"default:false;index"`
	Starred          bool      `json:"starred" gorm:"default:false"`
	Archived         bool      `json:"archived" gorm:"default:false"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Persona) TableName() string {
	return "personas"
}

// DisplayTitle falls back to a humanized role slug when no title is set.
func (p *Persona) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return RoleTitle(p.Role)
}

type Project struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	OwnerID      uint      `json:"owner_id" gorm:"index;not null"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Instructions string    `json:"instructions" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectPersona assigns a persona to a project channel.
type ProjectPersona struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProjectID uint      `json:"project_id" gorm:"index:idx_project_personas,unique;not null"`
	PersonaID uint      `json:"persona_id" gorm:"index:idx_project_personas,unique;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectPersona) TableName() string {
	return "project_personas"
}

// Memory is an owner-curated fact injected into chat context.
// PersonaID and ProjectID are both nil for shared memories.
type Memory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OwnerID   uint      `json:"owner_id" gorm:"index;not null"`
	PersonaID *uint     `json:"persona_id" gorm:"index"`
	ProjectID *uint     `json:"project_id" gorm:"index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Category  string    `json:"category" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Memory) TableName() string {
	return "memories"
}

// Message is one turn of a conversation. Exactly one of PersonaID
// (direct conversation) or ProjectID (project channel) is set.
type Message struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OwnerID   uint      `json:"owner_id" gorm:"index;not null"`
	PersonaID *uint     `json:"persona_id" gorm:"index"`
	ProjectID *uint     `json:"project_id" gorm:"index"`
	Role      string    `json:"role" gorm:"size:20;not null"` // user, assistant
	Content   string    `json:"content" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// UploadedFile is a small UTF-8 text file attached to a conversation scope
// and injected verbatim into chat context.
type UploadedFile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OwnerID   uint      `json:"owner_id" gorm:"index;not null"`
	PersonaID *uint     `json:"persona_id" gorm:"index"`
	ProjectID *uint     `json:"project_id" gorm:"index"`
	Filename  string    `json:"filename" gorm:"size:255;not null"`
	Content   string    `json:"content" gorm:"type:text"`
	Size      int       `json:"size" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
}

func (UploadedFile) TableName() string {
	return "uploaded_files"
}
