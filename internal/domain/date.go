package domain

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the literal layout of every workout date key.
const DateLayout = "2006-01-02"

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateDate checks that s is a YYYY-MM-DD key naming a real calendar day.
// "2024-13-40" matches the pattern but is still rejected.
func ValidateDate(s string) error {
	if !dateKeyPattern.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return nil
}
