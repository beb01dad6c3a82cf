package validation

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateOption checks one pass-through option before it is written as a
// "<key> <value>" input line.
//
// Returns an error if the key:
//   - Is empty
//   - Contains whitespace or a '#'
//
// or if the value contains a line break or a null byte. Either would let
// one option inject extra lines into the composed input.
func ValidateOption(key, value string) error {
	if key == "" {
		return fmt.Errorf("option name cannot be empty")
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return fmt.Errorf("option name %q cannot contain whitespace", key)
	}
	if strings.ContainsRune(key, '#') {
		return fmt.Errorf("option name %q cannot contain '#'", key)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("value of %s cannot span lines", key)
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("value of %s contains null byte", key)
	}
	return nil
}
