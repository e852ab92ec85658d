package fields

import (
	"fmt"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/sanitize"
	"github.com/sazinconstruction/adminkeeper/internal/validate"
)

// MessageInvalidCiphertext is the field message for undecryptable input.
const MessageInvalidCiphertext = "invalid ciphertext"

// MessageNotText is the field message for non-string input.
const MessageNotText = "must be a string"

// Pipeline holds the two process keys.
type Pipeline struct {
	transport cryptox.TransportKey
	storage   cryptox.StorageKey
}

func NewPipeline(transport cryptox.TransportKey, storage cryptox.StorageKey) *Pipeline {
	return &Pipeline{transport: transport, storage: storage}
}

// Result is the output of Run.
type Result struct {
	// Plain holds decrypted values of every present field.
	Plain map[string]string
	// Wire holds the values as received.
	Wire map[string]string
	// Stored holds the values to persist, by field name.
	Stored map[string]string
}

// Has reports whether the field was present in the payload.
func (r Result) Has(name string) bool {
	_, ok := r.Plain[name]
	return ok
}

// Run applies schema to a sanitized payload. Fields not in schema are
// ignored. The returned errors match common.ErrMissingFields,
// common.ErrSanitizationRejected or common.ErrValidationFailed; a failed
// decryption also matches common.ErrDecryptionFailed.
func (p *Pipeline) Run(schema Schema, payload map[string]any) (Result, error) {
	res := Result{
		Plain:  make(map[string]string, len(schema)),
		Wire:   make(map[string]string, len(schema)),
		Stored: make(map[string]string, len(schema)),
	}

	// extract
	notText := map[string]string{}
	for _, f := range schema {
		raw, ok := payload[f.Name]
		if !ok || raw == nil {
			continue
		}
		s, isText := raw.(string)
		if !isText {
			notText[f.Name] = MessageNotText
			continue
		}
		if s == "" {
			continue
		}
		res.Wire[f.Name] = s
	}

	// required
	var missing []string
	for _, f := range schema {
		if !f.Required {
			continue
		}
		if _, ok := res.Wire[f.Name]; !ok {
			if _, bad := notText[f.Name]; !bad {
				missing = append(missing, f.Name)
			}
		}
	}
	if len(missing) > 0 {
		return Result{}, &common.MissingFieldsError{Names: missing}
	}
	if len(notText) > 0 {
		return Result{}, &common.ValidationError{Fields: notText}
	}

	// decrypt
	undecryptable := map[string]string{}
	for _, f := range schema {
		wire, ok := res.Wire[f.Name]
		if !ok {
			continue
		}
		if !f.Transport {
			res.Plain[f.Name] = wire
			continue
		}
		plain, err := cryptox.Decrypt(wire, p.transport)
		if err != nil {
			undecryptable[f.Name] = MessageInvalidCiphertext
			continue
		}
		res.Plain[f.Name] = plain
	}
	if len(undecryptable) > 0 {
		return Result{}, fmt.Errorf("%w: %w", &common.ValidationError{Fields: undecryptable}, cryptox.ErrInvalidCiphertext)
	}

	// store-safety
	doc := make(map[string]any, len(res.Plain))
	for k, v := range res.Plain {
		doc[k] = v
	}
	if err := sanitize.CheckMongoSafe(doc); err != nil {
		return Result{}, err
	}

	// validate
	var rs validate.RuleSet
	for _, f := range schema {
		if _, ok := res.Plain[f.Name]; ok && len(f.Rules) > 0 {
			rs = append(rs, validate.Field{Name: f.Name, Rules: f.Rules})
		}
	}
	if vr := validate.Validate(rs, doc); !vr.Valid {
		return Result{}, &common.ValidationError{Fields: vr.Errors}
	}

	// re-encrypt
	for _, f := range schema {
		plain, ok := res.Plain[f.Name]
		if !ok {
			continue
		}
		switch f.Store {
		case StorePlain:
			res.Stored[f.Name] = plain
		case StoreSealed:
			sealed, err := cryptox.Encrypt(plain, p.storage)
			if err != nil {
				return Result{}, err
			}
			res.Stored[f.Name] = sealed
		case StoreEnvelope:
			if !f.Transport {
				return Result{}, fmt.Errorf("field %s: envelope requires transport ciphertext", f.Name)
			}
			sealed, err := cryptox.SealEnvelope(res.Wire[f.Name], p.storage)
			if err != nil {
				return Result{}, err
			}
			res.Stored[f.Name] = sealed
		}
	}

	return res, nil
}

// Seal encrypts a single value under the storage key.
func (p *Pipeline) Seal(plain string) (string, error) {
	return cryptox.Encrypt(plain, p.storage)
}

// Open decrypts a single storage-key value.
func (p *Pipeline) Open(sealed string) (string, error) {
	return cryptox.Decrypt(sealed, p.storage)
}

// ToTransport encrypts a value under the transport key for the client.
func (p *Pipeline) ToTransport(plain string) (string, error) {
	return cryptox.Encrypt(plain, p.transport)
}

// OpenPassword unwraps a stored password envelope.
func (p *Pipeline) OpenPassword(stored string) (string, error) {
	return cryptox.OpenEnvelope(stored, p.storage, p.transport)
}
