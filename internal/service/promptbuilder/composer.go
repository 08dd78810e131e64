package promptbuilder

import (
	"strings"

	"github.com/quietdesk/backend/internal/model"
)

// UserInstructionsHeader labels the owner's additions so they always read as
// the last word of the composed prompt.
const UserInstructionsHeader = "## Additional Instructions from User:"

// Composition is the composed instruction text plus the lineage facts shown
// on the instructions preview surface.
type Composition struct {
	Text            string   `json:"composed_instructions"`
	Sources         []string `json:"sources"`
	HasTemplate     bool     `json:"has_template"`
	TemplateName    string   `json:"template_name,omitempty"`
	CapturedVersion int      `json:"template_version"`
	CurrentVersion  int      `json:"current_template_version,omitempty"`
	UpdateAvailable bool     `json:"update_available"`
}

// ComposeInstructions layers a persona's prompt: persona instructions win
// over template instructions as the base, and user instructions are always
// appended last under their own header. Parts are joined by blank lines; no
// parts composes to the empty string.
func ComposeInstructions(persona *model.Persona, template *model.RoleTemplate) Composition {
	comp := Composition{
		Sources:         []string{},
		CapturedVersion: persona.TemplateVersion,
	}

	var parts []string
	if persona.Instructions != "" {
		parts = append(parts, persona.Instructions)
		comp.Sources = append(comp.Sources, "persona_instructions")
	} else if template != nil && template.Instructions != "" {
		parts = append(parts, template.Instructions)
		comp.Sources = append(comp.Sources, "role_template")
	}

	if persona.UserInstructions != "" {
		parts = append(parts, UserInstructionsHeader+"\n"+persona.UserInstructions)
		comp.Sources = append(comp.Sources, "user_instructions")
	}

	comp.Text = strings.Join(parts, "\n\n")

	if template != nil {
		comp.HasTemplate = true
		comp.TemplateName = template.Name
		comp.CurrentVersion = template.Version
		comp.UpdateAvailable = persona.TemplateVersion < template.Version
	}

	return comp
}
