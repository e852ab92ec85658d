// Package validate runs declarative per-field rule sets over decrypted
// request values and holds the field predicates the admin routes use.
package validate

// Predicate reports whether a field value is acceptable.
type Predicate func(value any) bool

// Rule pairs a predicate with the message recorded when it fails.
type Rule struct {
	Check   Predicate
	Message string
}

// R is shorthand for Rule{Check: check, Message: message}.
func R(check Predicate, message string) Rule {
	return Rule{Check: check, Message: message}
}

// Field lists the rules of one field, evaluated in order.
type Field struct {
	Name  string
	Rules []Rule
}

// RuleSet is an ordered list of fields.
type RuleSet []Field

// Result is the outcome of Validate. Errors maps a field name to the
// message of its first failing rule and is never nil.
type Result struct {
	Valid  bool
	Errors map[string]string
}

// Validate evaluates rs against data. For each field the rules run in order
// and the first one whose predicate fails, or that sees a missing value,
// records its message. Fields absent from rs are ignored.
func Validate(rs RuleSet, data map[string]any) Result {
	errs := make(map[string]string)

	for _, f := range rs {
		value, ok := data[f.Name]
		for _, r := range f.Rules {
			if r.Check == nil {
				continue
			}
			if !ok || !IsRequired(value) || !r.Check(value) {
				errs[f.Name] = r.Message
				break
			}
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}
