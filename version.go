package migrate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-state-migrate/tree"
)

// BaselineVersion is the version assumed for trees without a usable marker.
const BaselineVersion = 0

// VersionPath locates the schema marker inside the state tree.
var VersionPath = []string{"main", "_version"}

// VersionOf returns the schema version recorded in state. A missing marker, a
// marker that is not an integral number, or a negative marker all read as
// BaselineVersion.
func VersionOf(state map[string]any) int {
	raw, ok := tree.Lookup(state, VersionPath...)
	if !ok {
		return BaselineVersion
	}
	version, ok := parseVersion(raw)
	if !ok || version < BaselineVersion {
		return BaselineVersion
	}
	return version
}

func setVersion(state map[string]any, version int) {
	tree.Set(state, version, VersionPath...)
}

// parseVersion accepts integral numbers within the int32 range from any
// decoder, plus numeric strings. Everything else is unusable.
func parseVersion(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return boundedVersion(int64(v))
	case int8:
		return boundedVersion(int64(v))
	case int16:
		return boundedVersion(int64(v))
	case int32:
		return boundedVersion(int64(v))
	case int64:
		return boundedVersion(v)
	case uint:
		return boundedUnsigned(uint64(v))
	case uint8:
		return boundedUnsigned(uint64(v))
	case uint16:
		return boundedUnsigned(uint64(v))
	case uint32:
		return boundedUnsigned(uint64(v))
	case uint64:
		return boundedUnsigned(v)
	case float32:
		return integralFloat(float64(v))
	case float64:
		return integralFloat(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return boundedVersion(n)
		}
		if f, err := v.Float64(); err == nil {
			return integralFloat(f)
		}
		return 0, false
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return boundedVersion(n)
	default:
		return 0, false
	}
}

func boundedVersion(n int64) (int, bool) {
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, false
	}
	return int(n), true
}

func boundedUnsigned(n uint64) (int, bool) {
	if n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func integralFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
