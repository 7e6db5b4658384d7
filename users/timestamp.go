package users

import (
	"bytes"
	"encoding/json"
	"time"
)

// timestampLayouts are tried in order. Backends commonly send naive local
// timestamps or plain dates besides RFC 3339.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// Timestamp is a time decoded leniently from JSON. Null, empty and
// unrecognised values decode to the zero time rather than failing, so an
// odd date format never breaks a profile fetch.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses s with the first matching layout. Naive values are
// read as UTC.
func ParseTimestamp(s string) (Timestamp, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, true
		}
	}
	return Timestamp{}, false
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if parsed, ok := ParseTimestamp(s); ok {
		*t = parsed
	}
	return nil
}
