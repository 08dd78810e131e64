package promptbuilder

import (
	"strings"
	"testing"

	"github.com/quietdesk/backend/internal/model"
)

func TestComposeInstructionsPersonaWins(t *testing.T) {
	persona := &model.Persona{
		Instructions: "You are Jordan, a product manager.",
	}
	template := &model.RoleTemplate{
		Name:         "Product Manager",
		Instructions: "Template text that must not appear.",
		Version:      2,
	}

	comp := ComposeInstructions(persona, template)
	if !strings.HasPrefix(comp.Text, "You are Jordan") {
		t.Fatalf("persona instructions must be the base: %q", comp.Text)
	}
	if strings.Contains(comp.Text, "Template text") {
		t.Fatalf("template content must be absent when persona instructions are set")
	}
	if len(comp.Sources) != 1 || comp.Sources[0] != "persona_instructions" {
		t.Fatalf("unexpected sources: %v", comp.Sources)
	}
}

func TestComposeInstructionsTemplateFallback(t *testing.T) {
	persona := &model.Persona{}
	template := &model.RoleTemplate{
		Name:         "QA Engineer",
		Instructions: "You test things carefully.",
		Version:      1,
	}

	comp := ComposeInstructions(persona, template)
	if !strings.HasPrefix(comp.Text, "You test things carefully.") {
		t.Fatalf("template must be the base when persona instructions are empty: %q", comp.Text)
	}
	if comp.Sources[0] != "role_template" {
		t.Fatalf("unexpected sources: %v", comp.Sources)
	}
}

func TestComposeInstructionsUserLayerAlwaysLast(t *testing.T) {
	userText := "Always answer in French."

	withBase := ComposeInstructions(&model.Persona{
		Instructions:     "Base.",
		UserInstructions: userText,
	}, nil)
	wantTail := UserInstructionsHeader + "\n" + userText
	if !strings.HasSuffix(withBase.Text, wantTail) {
		t.Fatalf("user layer must be last: %q", withBase.Text)
	}
	if !strings.HasPrefix(withBase.Text, "Base.\n\n") {
		t.Fatalf("parts must be joined by a blank line: %q", withBase.Text)
	}

	// User layer survives even without any base.
	withoutBase := ComposeInstructions(&model.Persona{UserInstructions: userText}, nil)
	if withoutBase.Text != wantTail {
		t.Fatalf("expected bare user layer, got %q", withoutBase.Text)
	}
	if len(withoutBase.Sources) != 1 || withoutBase.Sources[0] != "user_instructions" {
		t.Fatalf("unexpected sources: %v", withoutBase.Sources)
	}
}

func TestComposeInstructionsEmpty(t *testing.T) {
	comp := ComposeInstructions(&model.Persona{}, nil)
	if comp.Text != "" {
		t.Fatalf("expected empty composition, got %q", comp.Text)
	}
	if len(comp.Sources) != 0 {
		t.Fatalf("expected no sources, got %v", comp.Sources)
	}
}

func TestComposeInstructionsLineage(t *testing.T) {
	persona := &model.Persona{
		Instructions:    "Base.",
		TemplateVersion: 1,
	}
	template := &model.RoleTemplate{
		Name:    "Research Analyst",
		Version: 3,
	}

	comp := ComposeInstructions(persona, template)
	if !comp.HasTemplate || comp.TemplateName != "Research Analyst" {
		t.Fatalf("unexpected lineage: %+v", comp)
	}
	if comp.CapturedVersion != 1 || comp.CurrentVersion != 3 {
		t.Fatalf("unexpected versions: %+v", comp)
	}
	if !comp.UpdateAvailable {
		t.Fatalf("expected update_available when captured < current")
	}

	persona.TemplateVersion = 3
	comp = ComposeInstructions(persona, template)
	if comp.UpdateAvailable {
		t.Fatalf("no update when captured == current")
	}
}
