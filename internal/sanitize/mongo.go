package sanitize

import (
	"fmt"
	"strings"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"go.mongodb.org/mongo-driver/bson"
)

// LooksSafeForMongo reports whether no key anywhere in v contains '$' or '.'.
// It walks plain maps, bson.M, bson.D and slices.
func LooksSafeForMongo(v any) bool {
	_, ok := firstUnsafeKey(v)
	return ok
}

// CheckMongoSafe is LooksSafeForMongo as an error. It rejects instead of
// stripping, and is applied right before a filter or update is built.
func CheckMongoSafe(v any) error {
	if key, ok := firstUnsafeKey(v); !ok {
		return fmt.Errorf("%w: key %q", common.ErrSanitizationRejected, key)
	}
	return nil
}

func unsafeKey(k string) bool {
	return strings.ContainsAny(k, "$.")
}

func firstUnsafeKey(v any) (string, bool) {
	switch t := v.(type) {
	case map[string]any:
		return walkMap(t)
	case bson.M:
		return walkMap(t)
	case bson.D:
		for _, e := range t {
			if unsafeKey(e.Key) {
				return e.Key, false
			}
			if k, ok := firstUnsafeKey(e.Value); !ok {
				return k, false
			}
		}
	case bson.E:
		return firstUnsafeKey(bson.D{t})
	case []any:
		return walkSlice(t)
	case bson.A:
		return walkSlice(t)
	case []map[string]any:
		for _, m := range t {
			if k, ok := walkMap(m); !ok {
				return k, false
			}
		}
	}
	return "", true
}

func walkMap(m map[string]any) (string, bool) {
	for k, val := range m {
		if unsafeKey(k) {
			return k, false
		}
		if bad, ok := firstUnsafeKey(val); !ok {
			return bad, false
		}
	}
	return "", true
}

func walkSlice(s []any) (string, bool) {
	for _, item := range s {
		if k, ok := firstUnsafeKey(item); !ok {
			return k, false
		}
	}
	return "", true
}
