package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds a chat message in bytes. EnvMaxInputSize
// overrides it for the whole process.
var (
	DefaultMaxInputSize = 4096
	EnvMaxInputSize     = "CHATSIM_MAX_INPUT_SIZE"
)

// Errors returned for chat text that cannot be posted.
var (
	ErrMessageTooLong = errors.New("message is too long")
	ErrMessageNotUTF8 = errors.New("message is not valid UTF-8")
)

// SanitizeInput prepares chat text for posting under the process-wide limit.
func SanitizeInput(text string) (string, error) {
	return SanitizeInputWithLimit(text, messageLimit())
}

// SanitizeInputWithLimit prepares chat text for posting. Oversized or
// malformed text is refused whole; control characters other than line
// breaks and tabs are dropped so a message cannot drive the terminal.
// limit <= 0 means the process-wide limit.
func SanitizeInputWithLimit(text string, limit int) (string, error) {
	if limit <= 0 {
		limit = messageLimit()
	}
	if len(text) > limit {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooLong, len(text), limit)
	}
	if !utf8.ValidString(text) {
		return "", ErrMessageNotUTF8
	}
	if strings.IndexFunc(text, unprintable) < 0 {
		return text, nil
	}
	return strings.Map(func(r rune) rune {
		if unprintable(r) {
			return -1
		}
		return r
	}, text), nil
}

func unprintable(r rune) bool {
	switch r {
	case '\n', '\r', '\t':
		return false
	}
	return unicode.IsControl(r)
}

func messageLimit() int {
	if n, err := strconv.Atoi(os.Getenv(EnvMaxInputSize)); err == nil && n > 0 {
		return n
	}
	return DefaultMaxInputSize
}
