package contextbuilder

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter reports how many tokens a string costs against the context
// budget. The budget check only needs a consistent measure, so either the
// real tokenizer or the estimator will do.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the cl100k_base encoding. The first call downloads
// the encoding data unless TIKTOKEN_CACHE_DIR points at a primed cache.
func NewTiktokenCounter() (TokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer encoding: %w", err)
	}
	return &tiktokenCounter{enc: enc}, nil
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// EstimatingCounter approximates token counts without a tokenizer, taking the
// larger of bytes/3 and runes/2. Used as a fallback when the encoding cannot
// be loaded, and in tests.
type EstimatingCounter struct{}

func (EstimatingCounter) Count(text string) int {
	byBytes := len(text) / 3
	byRunes := utf8.RuneCountInString(text) / 2
	if byBytes > byRunes {
		return byBytes
	}
	return byRunes
}
