package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DangerOptions selects the content checks of ContainsDangerousContent.
type DangerOptions struct {
	SkipXSS     bool
	SkipJSCalls bool
	SkipNoSQL   bool
	SkipSQL     bool
	// MaxLength flags longer strings; 0 means DefaultDangerMaxLength, <0 disables.
	MaxLength int
	// Blacklist holds extra substrings that are always flagged.
	Blacklist []string
}

// DefaultDangerMaxLength is the length above which a string is suspicious.
const DefaultDangerMaxLength = 5000

// Finding reasons.
const (
	ReasonXSS           = "xss_pattern"
	ReasonJSCall        = "js_call"
	ReasonNoSQLOperator = "nosql_operator_in_string"
	ReasonPathTraversal = "path_traversal_like"
	ReasonSQL           = "sql_like_pattern"
	ReasonLength        = "excessive_length"
	ReasonBlacklist     = "custom_blacklist"
)

var (
	xssPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<\s*script\b`),
		regexp.MustCompile(`(?i)<\s*iframe\b`),
		regexp.MustCompile(`(?i)on\w+\s*=`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)<\s*img\b[^>]*on\w+`),
		regexp.MustCompile(`(?i)<\s*svg\b`),
		regexp.MustCompile(`(?i)<\s*object\b`),
		regexp.MustCompile(`(?i)<\s*embed\b`),
		regexp.MustCompile(`(?i)</\s*script\s*>`),
	}
	jsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\beval\s*\(`),
		regexp.MustCompile(`(?i)\bnew\s+Function\s*\(`),
		regexp.MustCompile(`(?i)document\.cookie`),
		regexp.MustCompile(`(?i)window\.location`),
		regexp.MustCompile(`(?i)localStorage\.setItem`),
		regexp.MustCompile(`(?i)sessionStorage\.setItem`),
		regexp.MustCompile(`(?i)XMLHttpRequest`),
		regexp.MustCompile(`(?i)fetch\s*\(`),
	}
	nosqlOperator = regexp.MustCompile(`\$\w+`)
	sqlKeywords   = regexp.MustCompile(`(?i)\b(select|union|insert|update|delete|drop|truncate|alter|create|exec|execute)\b`)
	sqlComment    = regexp.MustCompile(`--|;|/\*`)
)

// Finding lists the unique reasons a value was flagged, in detection order.
type Finding struct {
	Reasons []string
}

// Found reports whether any check fired.
func (f Finding) Found() bool { return len(f.Reasons) > 0 }

// ContainsDangerousContent walks strings inside v (including slices and maps)
// and reports suspicious content. It does not modify anything.
func ContainsDangerousContent(v any, opts DangerOptions) Finding {
	seen := make(map[string]struct{})
	var f Finding
	add := func(reason string) {
		if _, ok := seen[reason]; ok {
			return
		}
		seen[reason] = struct{}{}
		f.Reasons = append(f.Reasons, reason)
	}

	maxLen := opts.MaxLength
	if maxLen == 0 {
		maxLen = DefaultDangerMaxLength
	}

	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			checkString(strings.TrimSpace(t), opts, maxLen, add)
		case []any:
			for _, item := range t {
				walk(item)
			}
		case []string:
			for _, item := range t {
				walk(item)
			}
		case map[string]any:
			for _, item := range t {
				walk(item)
			}
		}
	}
	walk(v)

	return f
}

func checkString(s string, opts DangerOptions, maxLen int, add func(string)) {
	if !opts.SkipXSS && anyMatch(xssPatterns, s) {
		add(ReasonXSS)
	}
	if !opts.SkipJSCalls && anyMatch(jsPatterns, s) {
		add(ReasonJSCall)
	}
	if !opts.SkipNoSQL {
		if nosqlOperator.MatchString(s) {
			add(ReasonNoSQLOperator)
		}
		if strings.Contains(s, "../") || strings.Contains(s, `..\`) {
			add(ReasonPathTraversal)
		}
	}
	if !opts.SkipSQL && (sqlKeywords.MatchString(s) || sqlComment.MatchString(s)) {
		add(ReasonSQL)
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		add(ReasonLength)
	}
	for _, b := range opts.Blacklist {
		if b != "" && strings.Contains(s, b) {
			add(ReasonBlacklist)
		}
	}
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
