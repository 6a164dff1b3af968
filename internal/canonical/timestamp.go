package canonical

import (
	"encoding/json"
	"time"
)

// millisCutoff disambiguates integer timestamps: values above it are read as
// milliseconds, anything below as seconds. 1e10 seconds is year 2286, far
// beyond any plausible message timestamp.
const millisCutoff = int64(1e10)

// ParseTimestamp converts a native timestamp value into a *time.Time.
// Accepted inputs: integers and floats (seconds, or milliseconds when the
// magnitude exceeds 1e10), json.Number, and ISO-8601 / RFC3339 strings.
// Anything else, including zero values, yields nil, never an error.
func ParseTimestamp(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return t
	case int:
		return fromEpoch(int64(t))
	case int32:
		return fromEpoch(int64(t))
	case int64:
		return fromEpoch(t)
	case uint64:
		return fromEpoch(int64(t))
	case float32:
		return fromEpoch(int64(t))
	case float64:
		return fromEpoch(int64(t))
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return nil
			}
			n = int64(f)
		}
		return fromEpoch(n)
	case string:
		return fromString(t)
	default:
		return nil
	}
}

func fromEpoch(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	var ts time.Time
	if n > millisCutoff {
		ts = time.UnixMilli(n).UTC()
	} else {
		ts = time.Unix(n, 0).UTC()
	}
	return &ts
}

func fromString(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if ts, err := time.Parse(layout, s); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}
