package chunker

import "strings"

// EstimateTokens approximates how many LLM tokens a text costs, using
// word count scaled by ~1.33 tokens per English word. Good enough for
// sizing reports; no exact tokenizer is involved.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
