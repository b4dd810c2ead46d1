package stores

import (
	"time"

	"github.com/oarkflow/date"
)

// parseFlexibleTime handles the differing timestamp text formats SQL drivers
// hand back for TIMESTAMP columns.
func parseFlexibleTime(s string) (time.Time, error) {
	return date.Parse(s)
}

func scanTime(raw any) time.Time {
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		if t, err := parseFlexibleTime(v); err == nil {
			return t
		}
	case []byte:
		if t, err := parseFlexibleTime(string(v)); err == nil {
			return t
		}
	}
	return time.Time{}
}
