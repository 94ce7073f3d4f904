package types

import (
	"fmt"
	"math"
	"strconv"
)

// ID identifies an entity. Snapshots carry ids either as strings or as JSON
// numbers; both normalize to the same ID so that 5 and "5" address the same
// player.
type ID string

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// ParseID converts a decoded snapshot value into an ID.
// Accepts non-empty strings, Go integer kinds and integral float64 values.
// Returns ErrInvalidID for anything else.
func ParseID(v any) (ID, error) {
	switch x := v.(type) {
	case ID:
		if x == "" {
			return "", ErrInvalidID
		}
		return x, nil
	case string:
		if x == "" {
			return "", ErrInvalidID
		}
		return ID(x), nil
	case int:
		return ID(strconv.Itoa(x)), nil
	case int32:
		return ID(strconv.FormatInt(int64(x), 10)), nil
	case int64:
		return ID(strconv.FormatInt(x, 10)), nil
	case uint64:
		return ID(strconv.FormatUint(x, 10)), nil
	case float64:
		n, ok := wholeInt64(x)
		if !ok {
			return "", fmt.Errorf("%w: %v", ErrInvalidID, x)
		}
		return ID(strconv.FormatInt(n, 10)), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrInvalidID, v)
	}
}

// wholeInt64 converts a decoded JSON number to int64 when it is integral
// and inside the int64 range.
func wholeInt64(x float64) (int64, bool) {
	if math.IsNaN(x) || x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
		return 0, false
	}
	return int64(x), true
}
