package promptbuilder

import (
	"strings"
	"time"
)

// Variables are the runtime values substituted into instruction text right
// before use. Instructions are stored with placeholders intact.
type Variables struct {
	UserName      string
	AssistantName string
	ProjectName   string
	Now           time.Time
}

func (v Variables) now() time.Time {
	if v.Now.IsZero() {
		return time.Now()
	}
	return v.Now
}

func (v Variables) userName() string {
	if v.UserName == "" {
		return "User"
	}
	return v.UserName
}

func (v Variables) assistantName() string {
	if v.AssistantName == "" {
		return "Assistant"
	}
	return v.AssistantName
}

// placeholders in replacement order. One pass per placeholder, no recursive
// expansion; tokens not listed here pass through verbatim.
var placeholders = []struct {
	token string
	value func(Variables) string
}{
	{"{{user_name}}", func(v Variables) string { return v.userName() }},
	{"{{assistant_name}}", func(v Variables) string { return v.assistantName() }},
	{"{{project_name}}", func(v Variables) string { return v.ProjectName }},
	{"{{current_date}}", func(v Variables) string { return v.now().Format("2006-01-02") }},
	{"{{current_time}}", func(v Variables) string { return v.now().Format("15:04") }},
	{"{{day_of_week}}", func(v Variables) string { return v.now().Format("Monday") }},
}

// Substitute replaces the known placeholder tokens in text with runtime
// values.
func Substitute(text string, vars Variables) string {
	if text == "" {
		return text
	}
	for _, p := range placeholders {
		text = strings.ReplaceAll(text, p.token, p.value(vars))
	}
	return text
}
