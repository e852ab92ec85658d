package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{"a@b.com", true},
		{"  a@b.com  ", true},
		{"first.last@sub.example.org", true},
		{"not-an-email", false},
		{"a@b", false},
		{"a b@c.com", false},
		{"", false},
		{42, false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidEmail(tt.in), "%v", tt.in)
	}
}

func TestIsValidString(t *testing.T) {
	assert.True(t, IsValidString("Alice Smith", 1, 255))
	assert.True(t, IsValidString("  padded  ", 1, 6))
	assert.False(t, IsValidString("", 1, 255))
	assert.False(t, IsValidString("abc", 1, 2))
	assert.False(t, IsValidString("O'Neil", 1, 255))
	assert.False(t, IsValidString("<b>x</b>", 1, 255))
	assert.False(t, IsValidString("a -- b", 1, 255))
	assert.False(t, IsValidString("call(x)", 1, 255))
	assert.False(t, IsValidString(12, 0, 255))
}

func TestContainsDangerousContent(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"clean", "hello world", nil},
		{"script", "<script>alert(1)</script>", []string{ReasonXSS}},
		{"script and call", "<script>fetch(u)</script>", []string{ReasonXSS, ReasonJSCall}},
		{"handler", `<img src=x onerror=boom>`, []string{ReasonXSS}},
		{"eval", "eval (x)", []string{ReasonJSCall}},
		{"nosql", `{"$gt": ""}`, []string{ReasonNoSQLOperator}},
		{"traversal", "../../etc/passwd", []string{ReasonPathTraversal}},
		{"sql", "1 UNION SELECT password", []string{ReasonSQL}},
		{"sql comment", "x; drop", []string{ReasonSQL}},
		{"nested", map[string]any{"a": []any{"ok", "document.cookie"}}, []string{ReasonJSCall}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ContainsDangerousContent(tt.in, DangerOptions{})
			assert.Equal(t, tt.want, f.Reasons)
			assert.Equal(t, len(tt.want) > 0, f.Found())
		})
	}
}

func TestContainsDangerousContent_Options(t *testing.T) {
	long := strings.Repeat("a", 11)

	assert.Equal(t, []string{ReasonLength}, ContainsDangerousContent(long, DangerOptions{MaxLength: 10}).Reasons)
	assert.Empty(t, ContainsDangerousContent(long, DangerOptions{MaxLength: -1}).Reasons)
	assert.Empty(t, ContainsDangerousContent("1 union 2", DangerOptions{SkipSQL: true}).Reasons)
	assert.Equal(t, []string{ReasonBlacklist}, ContainsDangerousContent("buy cheap pills", DangerOptions{Blacklist: []string{"pills"}}).Reasons)
}

func TestIsSafeString(t *testing.T) {
	ok := IsSafeString("Secret123", 1, 2000, DangerOptions{})
	assert.True(t, ok.Safe)
	assert.Empty(t, ok.Errors)

	bad := IsSafeString("<script>x</script>", 1, 2000, DangerOptions{})
	assert.False(t, bad.Safe)
	assert.Equal(t, ReasonInvalidString, bad.Errors[0])
	assert.Contains(t, bad.Errors, ReasonXSS)

	assert.True(t, SafeString(1, 2000)("Alice"))
	assert.False(t, SafeString(1, 3)("Alice"))
	assert.False(t, SafeString(1, 2000)("select * from users"))
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("https://www.linkedin.com/in/someone"))
	assert.True(t, IsValidURL("http://x.com"))
	assert.False(t, IsValidURL("linkedin.com/in/someone"))
	assert.False(t, IsValidURL(""))
	assert.False(t, IsValidURL(nil))
}

func TestIsValidObjectID(t *testing.T) {
	assert.True(t, IsValidObjectID("65a1f0c2b3d4e5f60718293a"))
	assert.True(t, IsValidObjectID("65A1F0C2B3D4E5F60718293A"))
	assert.False(t, IsValidObjectID("65a1f0c2b3d4e5f60718293"))
	assert.False(t, IsValidObjectID("zza1f0c2b3d4e5f60718293a"))
	assert.False(t, IsValidObjectID(123))
}

func TestIsValidDate(t *testing.T) {
	for _, ok := range []string{"2024-03-01", "2024-03-01T10:00:00Z", "2024-03-01T10:00:00.000+06:00", "03/01/2024", "March 1, 2024"} {
		assert.True(t, IsValidDate(ok), ok)
	}
	for _, bad := range []string{"", "yesterday", "2024-13-01", "32/01/2024"} {
		assert.False(t, IsValidDate(bad), bad)
	}
	assert.False(t, IsValidDate(20240301))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+8801712345678"))
	assert.True(t, IsValidPhone("(02) 555-1234"))
	assert.False(t, IsValidPhone("123"))
	assert.False(t, IsValidPhone("call me"))
	assert.False(t, IsValidPhone(""))
}

func TestIsOTP(t *testing.T) {
	assert.True(t, IsOTP("012345"))
	assert.False(t, IsOTP("12345"))
	assert.False(t, IsOTP("1234567"))
	assert.False(t, IsOTP("12a456"))
	assert.False(t, IsOTP(123456))
}

func TestIsValidNumber(t *testing.T) {
	assert.True(t, IsValidNumber(float64(0), 0, 10))
	assert.True(t, IsValidNumber("7.5", 0, 10))
	assert.False(t, IsValidNumber(float64(0), 1, 10))
	assert.False(t, IsValidNumber("x", 0, 10))
	assert.False(t, IsValidNumber(true, 0, 10))
}

func TestOneOf(t *testing.T) {
	p := OneOf("active", "reject")
	assert.True(t, p("active"))
	assert.False(t, p("pending"))
	assert.False(t, p(""))
	assert.False(t, p(1))
}
