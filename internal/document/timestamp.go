package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp is a UTC instant at millisecond precision. It is encoded as Unix
// milliseconds and decodes from either milliseconds or an RFC 3339 string.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: time.UnixMilli(t.UnixMilli()).UTC()}
}

func Now() Timestamp {
	return NewTimestamp(time.Now())
}

func (t Timestamp) Compare(u Timestamp) int {
	return t.Time.Compare(u.Time)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("0"), nil
	}
	return strconv.AppendInt(nil, t.UnixMilli(), 10), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		*t = NewTimestamp(parsed)
		return nil
	}
	var ms json.Number
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	f, err := ms.Float64()
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	if f == 0 {
		*t = Timestamp{}
		return nil
	}
	*t = Timestamp{Time: time.UnixMilli(int64(f)).UTC()}
	return nil
}
