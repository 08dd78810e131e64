package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/quietdesk/backend/internal/model"
)

const (
	ProjectInstructionsHeader = "## Project Instructions:"
	MemoryHeader              = "## Important Information to Remember:"
	ProjectFilesHeader        = "## Project Files:"
	UploadedFilesHeader       = "## Uploaded Files:"
)

// ContextInput carries everything the assembler folds into one system prompt.
// Base and ProjectInstructions arrive already substituted.
type ContextInput struct {
	Base                string
	ProjectInstructions string
	Memories            []string
	Files               []model.UploadedFile
	ProjectScope        bool
	ToolSections        []string
}

// AssembleContext builds the final system prompt for one completion call.
// Sections append in a strict order and only when non-empty, so an absent
// input never leaves a stray header behind.
func AssembleContext(in ContextInput) string {
	prompt := in.Base

	if in.ProjectInstructions != "" {
		prompt = appendSection(prompt, "\n\n"+ProjectInstructionsHeader+"\n"+in.ProjectInstructions)
	}

	if len(in.Memories) > 0 {
		var b strings.Builder
		b.WriteString("\n\n")
		b.WriteString(MemoryHeader)
		for _, memory := range in.Memories {
			b.WriteString("\n- ")
			b.WriteString(memory)
		}
		prompt = appendSection(prompt, b.String())
	}

	if len(in.Files) > 0 {
		header := UploadedFilesHeader
		if in.ProjectScope {
			header = ProjectFilesHeader
		}
		var b strings.Builder
		b.WriteString("\n\n")
		b.WriteString(header)
		b.WriteString("\n")
		for _, f := range in.Files {
			b.WriteString(fmt.Sprintf("\n### %s\n```\n%s\n```\n", f.Filename, f.Content))
		}
		prompt = appendSection(prompt, b.String())
	}

	for _, section := range in.ToolSections {
		if section == "" {
			continue
		}
		prompt = appendSection(prompt, "\n\n"+section)
	}

	return prompt
}

// appendSection glues a "\n\n"-prefixed section onto the prompt; when the
// prompt is still empty the section's leading blank lines are trimmed so the
// result never starts with whitespace.
func appendSection(prompt, section string) string {
	if prompt == "" {
		return strings.TrimSpace(section)
	}
	return prompt + section
}
