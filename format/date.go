package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// InvalidDate is the placeholder DateOrInvalid returns for input that is not
// a recognizable date.
const InvalidDate = "Invalid Date"

const dateLayout = "Jan 2, 2006"

// Date parses input and renders its calendar date as "Jan 15, 2024".
//
// Most common layouts are accepted: ISO 8601 and RFC 3339 timestamps, plain
// "2006-01-02" dates, RFC 1123, "Jan 2, 2006" and US-style numeric dates
// where the month comes first ("01/15/2024"). A bare four digit year such as
// "2024" means January 1 of that year. Any other input made only of digits,
// such as a Unix timestamp, is rejected. The date is taken in the offset
// written in the input, or UTC when there is none, so the result never
// depends on the local timezone of the host.
//
// Unparseable input returns an error wrapping ErrInvalidArgument.
func Date(input string) (string, error) {
	t, err := ParseDate(input)
	if err != nil {
		return "", err
	}

	return Time(t), nil
}

// DateOrInvalid behaves like Date but returns InvalidDate instead of an
// error when input cannot be parsed.
func DateOrInvalid(input string) string {
	s, err := Date(input)
	if err != nil {
		return InvalidDate
	}
	return s
}

// Time renders the calendar date of t as "Jan 15, 2024".
func Time(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses input using the same rules as Date.
func ParseDate(input string) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidArgument)
	}

	if isDigits(s) && len(s) != len("2006") {
		return time.Time{}, fmt.Errorf("%w: date %q: numeric timestamps are not accepted", ErrInvalidArgument, input)
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %w", ErrInvalidArgument, input, err)
	}

	return t, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
