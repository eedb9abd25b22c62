package middleware

import (
	"unicode/utf8"

	"github.com/roomlink/messaging-platform/pkg/errors"
)

// MaxContentBytes caps a message payload (~100KB).
const MaxContentBytes = 100000

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.ErrEmptyContent
	}
	if len(content) > MaxContentBytes {
		return errors.InvalidArg("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.InvalidArg("content must be valid UTF-8")
	}
	return nil
}
