package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Content validates message text before it enters the ledger.
type Content struct {
	MaxLength int
}

func NewContent(maxLength int) *Content {
	return &Content{MaxLength: maxLength}
}

func (c *Content) Text(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyContent
	}
	if c.MaxLength > 0 && utf8.RuneCountInString(text) > c.MaxLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrPayloadTooLarge, c.MaxLength)
	}
	return nil
}
