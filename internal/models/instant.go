package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Instant is a single normalized point in time. Upstream payloads carry
// timestamps in several shapes: an RFC3339 string, a raw epoch number
// (seconds or milliseconds), or a wrapped object with seconds/nanos
// fields. All of them are decoded here, at the data-model boundary, so
// nothing deeper in the application ever branches on timestamp shape.
type Instant struct {
	time.Time
}

// NewInstant wraps a time value.
func NewInstant(t time.Time) Instant {
	return Instant{Time: t}
}

type wrappedTimestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int64 `json:"nanos"`
}

// UnmarshalJSON accepts RFC3339 strings, epoch numbers and wrapped
// {seconds,nanos} objects. null and empty strings decode to the zero value.
func (i *Instant) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		i.Time = time.Time{}
		return nil
	}

	switch data[0] {
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			i.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("parse instant %q: %w", raw, err)
		}
		i.Time = parsed
		return nil
	case '{':
		var wrapped wrappedTimestamp
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		i.Time = time.Unix(wrapped.Seconds, wrapped.Nanos).UTC()
		return nil
	default:
		var epoch float64
		if err := json.Unmarshal(data, &epoch); err != nil {
			return err
		}
		// Millisecond epochs are far larger than any plausible second epoch.
		if epoch > 1e12 {
			i.Time = time.UnixMilli(int64(epoch)).UTC()
			return nil
		}
		sec, frac := math.Modf(epoch)
		i.Time = time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
		return nil
	}
}

// MarshalJSON always emits RFC3339.
func (i Instant) MarshalJSON() ([]byte, error) {
	if i.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(i.Time.Format(time.RFC3339))
}

// Scan implements sql.Scanner.
func (i *Instant) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		i.Time = time.Time{}
		return nil
	case time.Time:
		i.Time = v
		return nil
	case []byte:
		parsed, err := time.Parse(time.RFC3339, string(v))
		if err != nil {
			return fmt.Errorf("scan instant: %w", err)
		}
		i.Time = parsed
		return nil
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("scan instant: %w", err)
		}
		i.Time = parsed
		return nil
	default:
		return fmt.Errorf("scan instant: unsupported type %T", value)
	}
}

// Value implements driver.Valuer.
func (i Instant) Value() (driver.Value, error) {
	if i.Time.IsZero() {
		return nil, nil
	}
	return i.Time, nil
}
