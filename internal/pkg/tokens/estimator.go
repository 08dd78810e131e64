// Package tokens estimates LLM token counts without a tokenizer dependency.
package tokens

// EstimateTokens approximates the token count of text as one token per four
// bytes, rounded down. The estimate is deliberately crude; budget callers
// keep a safety margin that absorbs the error in either direction.
func EstimateTokens(text string) int {
	return len(text) / 4
}
