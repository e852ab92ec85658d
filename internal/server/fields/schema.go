// Package fields runs the per-route field pipeline: extract the declared
// fields, check required ones, decrypt transport ciphertext, confirm the
// result is safe for the document store, validate, and prepare the values
// that are persisted.
package fields

import "github.com/sazinconstruction/adminkeeper/internal/validate"

// StoreMode says how a field is written to the store.
type StoreMode int

const (
	// StoreNone keeps the field out of the stored set.
	StoreNone StoreMode = iota
	// StorePlain stores the (decrypted) value as is.
	StorePlain
	// StoreSealed stores the plaintext under the storage key.
	StoreSealed
	// StoreEnvelope stores the transport ciphertext as received, wrapped
	// under the storage key. Only valid for Transport fields.
	StoreEnvelope
)

// Field declares one accepted payload field.
type Field struct {
	Name string
	// Required fields must be present and non-empty.
	Required bool
	// Transport fields arrive encrypted under the transport key.
	Transport bool
	Store     StoreMode
	Rules     []validate.Rule
}

// Schema is the ordered allow-list of a route.
type Schema []Field

// Required returns the names of the required fields in schema order.
func (s Schema) Required() []string {
	var out []string
	for _, f := range s {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}
