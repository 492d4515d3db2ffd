package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"
)

var (
	// DefaultMaxScriptSize is 1MiB.
	DefaultMaxScriptSize = 1 << 20
	// EnvMaxScriptSize is the environment variable to override the default.
	EnvMaxScriptSize = "TRAWLER_MAX_SCRIPT_SIZE"
)

var (
	ErrScriptTooLarge = errors.New("script exceeds maximum allowed size")
	ErrInvalidUTF8    = errors.New("script contains invalid UTF-8 sequences")
)

// CheckScript rejects remote script payloads that are oversized or not UTF-8
// before they are decoded.
func CheckScript(data []byte) error {
	limit := MaxScriptSize()
	if len(data) > limit {
		return fmt.Errorf("%w: size=%d limit=%d", ErrScriptTooLarge, len(data), limit)
	}
	if !utf8.Valid(data) {
		return ErrInvalidUTF8
	}
	return nil
}

func MaxScriptSize() int {
	if val := os.Getenv(EnvMaxScriptSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxScriptSize
}
