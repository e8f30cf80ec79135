package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a cached read. Two keys are equal when every element has the
// same JSON encoding, so Key{"customers", "paginated", 1, 10} and
// Key{"customers", "paginated", uint64(1), 10} name the same entry.
// Keys are never normalized beyond that: a shorter key is a different entry.
type Key []any

// String returns the canonical form of the key.
func (k Key) String() string {
	return "[" + strings.Join(k.parts(), ",") + "]"
}

// HasPrefix reports whether the leading elements of k equal prefix.
func (k Key) HasPrefix(prefix Key) bool {
	return hasPrefix(k.parts(), prefix.parts())
}

func (k Key) parts() []string {
	out := make([]string, len(k))
	for i, v := range k {
		out[i] = encodePart(v)
	}
	return out
}

func encodePart(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return string(b)
}

func hasPrefix(parts, prefix []string) bool {
	if len(prefix) > len(parts) {
		return false
	}
	for i, p := range prefix {
		if parts[i] != p {
			return false
		}
	}
	return true
}
