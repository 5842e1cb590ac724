// Package format renders values for display on the dashboard using fixed
// en-US conventions.
//
// Currency amounts are rendered in US dollars with a leading "$", comma
// thousands separators and exactly two decimals. Dates are rendered with an
// abbreviated month, the day and the year ("Jan 15, 2024").
//
// Malformed input is rejected with an error wrapping ErrInvalidArgument.
// Callers that need the browser-compatible behavior for dates can use
// DateOrInvalid, which returns the InvalidDate sentinel instead.
//
// Example usage:
//
//	revenue, err := format.Currency(24350.75) // "$24,350.75"
//	if err != nil {
//		return err
//	}
//
//	day, err := format.Date("2024-01-15") // "Jan 15, 2024"
//	if err != nil {
//		return err
//	}
package format

import "errors"

// ErrInvalidArgument is returned when a value cannot be formatted.
var ErrInvalidArgument = errors.New("invalid argument")
