package utils

import (
	"encoding/json"
	"strings"

	"k8s.io/klog/v2"
)

// ToJSON renders v for logging. Marshal failures return an empty string,
// log formatting never fails a caller.
func ToJSON(v any) string {
	jsonData, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("JSON marshal failed: %v", err)
		return ""
	}
	return string(jsonData)
}

// ExtractMarkdown unwraps a document the model returned inside a fenced code
// block. Only a fence that wraps the whole payload is stripped; fences inside
// an unwrapped document are content and stay untouched. Trailing chatter
// after the closing fence is dropped.
func ExtractMarkdown(content string) string {
	const fence = "```"

	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, fence) {
		return content
	}

	rest := trimmed[len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return content
	}

	// A leading block in another language is a code answer, not wrapping.
	lang := strings.TrimSpace(rest[:nl])
	if lang != "" && !strings.EqualFold(lang, "markdown") && !strings.EqualFold(lang, "md") {
		return content
	}

	body := rest[nl+1:]
	end := strings.LastIndex(body, fence)
	if end == -1 {
		return content
	}

	return strings.TrimSpace(body[:end])
}
