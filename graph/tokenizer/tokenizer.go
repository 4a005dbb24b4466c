// Package tokenizer counts tokens for cost accounting. Grounded on
// Tangerg-lynx/ai/tokenizer/tiktoken.go's Tiktoken wrapper, narrowed to
// plain text counting since ChatGraphState carries no media payloads.
package tokenizer

import "github.com/pkoukk/tiktoken-go"

// Counter counts tokens for a fixed encoding.
type Counter struct {
	encoding *tiktoken.Tiktoken
}

// NewCounter builds a Counter using OpenAI's cl100k_base encoding, the
// encoding shared by the gpt-4 family and a reasonable approximation for
// non-OpenAI models since no model here exposes its own tokenizer.
func NewCounter() (*Counter, error) {
	encoding, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		return nil, err
	}
	return &Counter{encoding: encoding}, nil
}

// Count returns the number of tokens text encodes to.
func (c *Counter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}
