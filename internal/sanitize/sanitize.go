package sanitize

import (
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// maxPasses bounds the string fixpoint loop.
const maxPasses = 6

var hazardKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// Sanitizer applies a Policy. It is safe for concurrent use.
type Sanitizer struct {
	policy Policy
	markup *bluemonday.Policy
}

func New(p Policy) *Sanitizer {
	return &Sanitizer{policy: p, markup: bluemonday.StrictPolicy()}
}

// Policy returns the policy s was built with.
func (s *Sanitizer) Policy() Policy { return s.policy }

// Value cleans v recursively. Maps and slices are rebuilt, strings are
// cleaned, numbers, booleans, nil and other types pass through.
// Sanitizing an already sanitized value returns it unchanged.
func (s *Sanitizer) Value(v any) any {
	switch t := v.(type) {
	case string:
		return s.String(t)
	case map[string]any:
		return s.Map(t)
	case []any:
		return s.slice(t)
	case []string:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return s.slice(out)
	default:
		return v
	}
}

// Map cleans an object. Keys with an operator prefix, a path separator or a
// prototype hazard name are dropped, as are keys outside the policy's
// pattern; surviving keys are reduced to [A-Za-z0-9_-].
func (s *Sanitizer) Map(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))

	raw := make([]string, 0, len(m))
	for k := range m {
		raw = append(raw, k)
	}
	sort.Strings(raw)

	// a key that is already clean wins over one that only becomes equal to it
	// after whitelisting
	exact := make(map[string]bool, len(m))
	for _, k := range raw {
		safe, ok := s.key(k)
		if !ok {
			continue
		}
		if exact[safe] {
			continue
		}
		val := s.Value(m[k])
		if s.policy.RemoveEmptyValues && isEmpty(val) {
			continue
		}
		if _, seen := out[safe]; seen && k != safe {
			continue
		}
		out[safe] = val
		exact[safe] = k == safe
	}
	return out
}

func (s *Sanitizer) slice(in []any) []any {
	out := make([]any, 0, len(in))
	for _, item := range in {
		v := s.Value(item)
		if s.policy.RemoveEmptyValues && isEmpty(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (s *Sanitizer) key(k string) (string, bool) {
	if strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
		return "", false
	}
	if _, bad := hazardKeys[k]; bad {
		return "", false
	}
	if p := s.policy.AllowedKeyPattern; p != nil && !p.MatchString(k) {
		return "", false
	}

	safe := whitelistKey(k)
	if safe == "" {
		return "", false
	}
	if _, bad := hazardKeys[safe]; bad {
		return "", false
	}
	if p := s.policy.AllowedKeyPattern; p != nil && !p.MatchString(safe) {
		return "", false
	}
	return safe, true
}

func whitelistKey(k string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, k)
}

// String trims, strips NUL bytes, removes markup and truncates to the
// policy bound. The steps repeat until the value stops changing, so the
// result is a fixpoint of the cleaning step.
func (s *Sanitizer) String(in string) string {
	cur := in
	for i := 0; i < maxPasses; i++ {
		next := s.pass(cur)
		if next == cur {
			return cur
		}
		cur = next
	}

	// markup that keeps reappearing after unescaping loses its brackets
	cur = strings.NewReplacer("<", "", ">", "").Replace(cur)
	for i := 0; i < maxPasses; i++ {
		next := s.pass(cur)
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

func (s *Sanitizer) pass(in string) string {
	v := strings.TrimSpace(in)
	v = strings.ReplaceAll(v, "\x00", "")
	v = html.UnescapeString(s.markup.Sanitize(v))
	v = strings.TrimSpace(v)
	return strings.TrimSpace(truncate(v, s.policy.MaxStringLength))
}

func truncate(v string, max int) string {
	if max <= 0 || utf8.RuneCountInString(v) <= max {
		return v
	}
	n := 0
	for i := range v {
		if n == max {
			return v[:i]
		}
		n++
	}
	return v
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
