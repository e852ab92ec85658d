package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern     = regexp.MustCompile(`^\+?[0-9(][0-9\s\-()]{5,18}[0-9]$`)
	otpPattern       = regexp.MustCompile(`^[0-9]{6}$`)
	forbiddenPattern = regexp.MustCompile(`(?i)<script.*?>.*?</script>|<.*?>|['"` + "`" + `$;{}()\[\]\\<>]|--|/\*|\*/`)
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// IsRequired is false for nil and the empty string.
func IsRequired(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// IsValidEmail checks the trimmed value against local@domain.tld.
func IsValidEmail(v any) bool {
	s, ok := asString(v)
	if !ok {
		return false
	}
	return validation.Validate(strings.TrimSpace(s), validation.Required, validation.Match(emailPattern)) == nil
}

// IsValidString checks the trimmed rune length against [min, max] and
// rejects markup, quotes, brackets and comment sequences.
func IsValidString(v any, min, max int) bool {
	s, ok := asString(v)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < min || n > max {
		return false
	}
	return !forbiddenPattern.MatchString(s)
}

// SafeStringResult explains why IsSafeString refused a value.
type SafeStringResult struct {
	Safe   bool
	Errors []string
}

// ReasonInvalidString is reported when IsValidString fails.
const ReasonInvalidString = "invalid_length_or_type"

// IsSafeString combines IsValidString with ContainsDangerousContent.
func IsSafeString(v any, min, max int, opts DangerOptions) SafeStringResult {
	var errs []string
	if !IsValidString(v, min, max) {
		errs = append(errs, ReasonInvalidString)
	}
	errs = append(errs, ContainsDangerousContent(v, opts).Reasons...)
	return SafeStringResult{Safe: len(errs) == 0, Errors: errs}
}

// SafeString is the predicate form of IsSafeString with default checks.
func SafeString(min, max int) Predicate {
	return func(v any) bool {
		return IsSafeString(v, min, max, DangerOptions{}).Safe
	}
}

// IsValidURL accepts absolute URLs with a scheme and host.
func IsValidURL(v any) bool {
	s, ok := asString(v)
	if !ok || s == "" {
		return false
	}
	return validation.Validate(s, is.RequestURL) == nil
}

// IsValidObjectID accepts 24 hex characters.
func IsValidObjectID(v any) bool {
	s, ok := asString(v)
	if !ok || s == "" {
		return false
	}
	return validation.Validate(s, is.MongoID) == nil
}

// IsValidDate accepts the calendar formats the admin UI submits.
func IsValidDate(v any) bool {
	s, ok := asString(v)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, layout := range dateLayouts {
		if validation.Validate(s, validation.Date(layout)) == nil {
			return true
		}
	}
	return false
}

// IsValidPhone accepts an optional leading '+', digits, spaces, dashes and
// parentheses, 7 to 20 characters.
func IsValidPhone(v any) bool {
	s, ok := asString(v)
	if !ok {
		return false
	}
	return validation.Validate(strings.TrimSpace(s), validation.Required, validation.Match(phonePattern)) == nil
}

// IsOTP accepts exactly six digits.
func IsOTP(v any) bool {
	s, ok := asString(v)
	if !ok {
		return false
	}
	return validation.Validate(s, validation.Required, validation.Match(otpPattern)) == nil
}

// IsValidNumber accepts numbers, or numeric strings, within [min, max].
func IsValidNumber(v any, min, max float64) bool {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return false
		}
		f = parsed
	default:
		return false
	}
	return f >= min && f <= max
}

// OneOf accepts the listed string values only.
func OneOf(values ...string) Predicate {
	allowed := make([]interface{}, len(values))
	for i, v := range values {
		allowed[i] = v
	}
	return func(v any) bool {
		s, ok := asString(v)
		if !ok || s == "" {
			return false
		}
		return validation.Validate(s, validation.In(allowed...)) == nil
	}
}

// MaxLen returns a SafeString(1, max) predicate.
func MaxLen(max int) Predicate { return SafeString(1, max) }
