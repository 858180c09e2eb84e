package service

import (
	"net/mail"
	"strconv"
	"strings"
)

// ValidEmail reports whether s parses as an addr-spec.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// ParseOptionalInt normalizes numeric form input: empty means "not
// provided" (nil), never zero. Non-numeric text is a validation error
// naming the field, raised before any storage call.
func ParseOptionalInt(field, s string) (*int32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil, ErrValidation(field, "must be a whole number")
	}
	v := int32(n)
	return &v, nil
}

// ParseOptionalDecimal is ParseOptionalInt for decimal fields (points may
// be fractional, e.g. relay splits scored 0.5).
func ParseOptionalDecimal(field, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, ErrValidation(field, "must be a number")
	}
	return &v, nil
}
