package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialNotConfigured marks completion attempts without any usable
	// API key for the target provider. Handlers map it to 402.
	ErrCredentialNotConfigured = errors.New("api key not configured")

	// ErrEmptyResponse marks a completion that produced no content.
	ErrEmptyResponse = errors.New("model returned empty response")
)

// CredentialNotConfiguredError carries the provider whose key is missing so
// callers can tell the user which key to add.
type CredentialNotConfiguredError struct {
	Provider Provider
}

func (e *CredentialNotConfiguredError) Error() string {
	return fmt.Sprintf("%s api key not configured", e.Provider)
}

func (e *CredentialNotConfiguredError) Unwrap() error {
	return ErrCredentialNotConfigured
}

// UserMessage is the settings hint shown to the owner.
func (e *CredentialNotConfiguredError) UserMessage() string {
	return fmt.Sprintf("%s API key required. Please add your API key in Settings.", e.Provider.DisplayName())
}
