package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ToInt converts a database/sql scan value to int.
// Drivers return int64, float64, []byte or string depending on dialect and column type.
func ToInt(val any) int {
	switch v := val.(type) {
	case nil:
		return 0
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case uint64:
		return int(v)
	case uint32:
		return int(v)
	case float64:
		return int(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case []byte:
		return atoi(string(v))
	case string:
		return atoi(v)
	default:
		return atoi(fmt.Sprintf("%v", v))
	}
}

// ToString converts a scan value to string. NULL becomes "".
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts a scan value to bool.
// Non-zero numbers and "1", "true", "yes" (any case) are true.
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case []byte:
		return parseBool(string(v))
	case string:
		return parseBool(v)
	case nil:
		return false
	default:
		return ToInt(v) != 0
	}
}

func atoi(s string) int {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
