package fields

import (
	"errors"
	"testing"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keys struct {
	kt cryptox.TransportKey
	ks cryptox.StorageKey
}

func newKeys(t *testing.T) keys {
	t.Helper()
	kt, err := cryptox.NewTransportKey("dec")
	require.NoError(t, err)
	ks, err := cryptox.NewStorageKey("enc")
	require.NoError(t, err)
	return keys{kt: kt, ks: ks}
}

func (k keys) wire(t *testing.T, plain string) string {
	t.Helper()
	c, err := cryptox.Encrypt(plain, k.kt)
	require.NoError(t, err)
	return c
}

func registerSchema() Schema {
	return Schema{
		{Name: "name", Required: true, Transport: true, Store: StoreSealed, Rules: []validate.Rule{validate.R(validate.SafeString(1, 2000), "Invalid name")}},
		{Name: "email", Required: true, Transport: true, Store: StoreSealed, Rules: []validate.Rule{validate.R(validate.IsValidEmail, "Invalid email")}},
		{Name: "password", Required: true, Transport: true, Store: StoreEnvelope, Rules: []validate.Rule{validate.R(validate.SafeString(1, 2000), "Invalid password")}},
		{Name: "bio", Store: StorePlain, Rules: []validate.Rule{validate.R(validate.SafeString(1, 20), "Invalid bio")}},
	}
}

func TestPipeline_HappyPath(t *testing.T) {
	k := newKeys(t)
	p := NewPipeline(k.kt, k.ks)

	pw := k.wire(t, "Secret123")
	res, err := p.Run(registerSchema(), map[string]any{
		"name":     k.wire(t, "Alice"),
		"email":    k.wire(t, "a@b.com"),
		"password": pw,
		"bio":      "hello",
		"isAdmin":  "true",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"name": "Alice", "email": "a@b.com", "password": "Secret123", "bio": "hello"}, res.Plain)
	assert.Equal(t, pw, res.Wire["password"])
	assert.False(t, res.Has("isAdmin"))
	assert.Equal(t, "hello", res.Stored["bio"])

	name, err := cryptox.Decrypt(res.Stored["name"], k.ks)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	// password: storage layer then transport layer
	inner, err := cryptox.Decrypt(res.Stored["password"], k.ks)
	require.NoError(t, err)
	assert.Equal(t, pw, inner)
	got, err := p.OpenPassword(res.Stored["password"])
	require.NoError(t, err)
	assert.Equal(t, "Secret123", got)
}

func TestPipeline_MissingFields(t *testing.T) {
	k := newKeys(t)
	p := NewPipeline(k.kt, k.ks)

	_, err := p.Run(registerSchema(), map[string]any{"name": k.wire(t, "Alice"), "email": ""})
	require.Error(t, err)

	var mf *common.MissingFieldsError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, []string{"email", "password"}, mf.Names)
	assert.ErrorIs(t, err, common.ErrMissingFields)
	assert.Equal(t, "Missing fields: email, password", err.Error())
}

func TestPipeline_WrongKeyIsDecryptionFailure(t *testing.T) {
	k := newKeys(t)
	p := NewPipeline(k.kt, k.ks)

	other, err := cryptox.NewTransportKey("someone-else")
	require.NoError(t, err)
	foreign, err := cryptox.Encrypt("", other)
	require.NoError(t, err)

	_, err = p.Run(registerSchema(), map[string]any{
		"name":     k.wire(t, "Alice"),
		"email":    k.wire(t, "a@b.com"),
		"password": foreign,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidationFailed)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)

	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, map[string]string{"password": MessageInvalidCiphertext}, ve.Fields)
}

func TestPipeline_DecryptedEmptyFailsValidation(t *testing.T) {
	k := newKeys(t)
	p := NewPipeline(k.kt, k.ks)

	_, err := p.Run(registerSchema(), map[string]any{
		"name":     k.wire(t, "Alice"),
		"email":    k.wire(t, "a@b.com"),
		"password": k.wire(t, ""),
	})
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Invalid password", ve.Fields["password"])
	assert.False(t, errors.Is(err, common.ErrDecryptionFailed))
}

func TestPipeline_ValidationMessages(t *testing.T) {
	k := newKeys(t)
	p := NewPipeline(k.kt, k.ks)

	_, err := p.Run(registerSchema(), map[string]any{
		"name":     k.wire(t, "Alice"),
		"email":    k.wire(t, "not-an-email"),
		"password": k.wire(t, "Secret123"),
		"bio":      "this bio is far longer than twenty characters",
	})
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, map[string]string{"email": "Invalid email", "bio": "Invalid bio"}, ve.Fields)
}

func TestPipeline_NonStringValue(t *testing.T) {
	k := newKeys(t)
	p := NewPipeline(k.kt, k.ks)

	_, err := p.Run(registerSchema(), map[string]any{
		"name":     map[string]any{"x": "y"},
		"email":    k.wire(t, "a@b.com"),
		"password": k.wire(t, "Secret123"),
	})
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, MessageNotText, ve.Fields["name"])
}

func TestPipeline_UnsafeFieldNameRejected(t *testing.T) {
	k := newKeys(t)
	p := NewPipeline(k.kt, k.ks)

	_, err := p.Run(Schema{{Name: "a.b", Store: StorePlain}}, map[string]any{"a.b": "x"})
	assert.ErrorIs(t, err, common.ErrSanitizationRejected)
}

func TestPipeline_EnvelopeNeedsTransportField(t *testing.T) {
	k := newKeys(t)
	p := NewPipeline(k.kt, k.ks)

	_, err := p.Run(Schema{{Name: "pw", Store: StoreEnvelope}}, map[string]any{"pw": "x"})
	assert.Error(t, err)
}

func TestPipeline_SingleValueHelpers(t *testing.T) {
	k := newKeys(t)
	p := NewPipeline(k.kt, k.ks)

	sealed, err := p.Seal("Alice")
	require.NoError(t, err)
	opened, err := p.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "Alice", opened)

	wire, err := p.ToTransport("a@b.com")
	require.NoError(t, err)
	plain, err := cryptox.Decrypt(wire, k.kt)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", plain)

	assert.Equal(t, []string{"name", "email", "password"}, registerSchema().Required())
}
