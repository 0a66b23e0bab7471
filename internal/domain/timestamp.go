package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// localLayout is the zone-less ISO form the FX service emits for its own
// local time.
const localLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is a server timestamp. Values without a zone are interpreted in
// the process's local zone; the original text is kept so a value survives a
// serialization round trip unchanged.
type Timestamp struct {
	time.Time
	raw string
	// wall holds a zone-less value read as UTC, so differences between two
	// such values follow the server's wall clock across DST changes.
	wall time.Time
}

func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

// ParseTimestamp accepts RFC 3339 or the zone-less ISO layout.
func ParseTimestamp(s string) (Timestamp, error) {
	return parseTimestampIn(s, time.Local)
}

func parseTimestampIn(s string, loc *time.Location) (Timestamp, error) {
	if s == "" {
		return Timestamp{}, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t, raw: s}, nil
	}
	wall, err := time.ParseInLocation(localLayout, s, time.UTC)
	if err != nil {
		return Timestamp{}, err
	}
	t, err := time.ParseInLocation(localLayout, s, loc)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{Time: t, raw: s, wall: wall}, nil
}

func MustParseTimestamp(s string) Timestamp {
	ts, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return ts
}

func (t Timestamp) String() string {
	if t.raw != "" {
		return t.raw
	}
	return t.Time.Format(time.RFC3339Nano)
}

// Since returns t - o. When both values are zone-less it is the wall-clock
// difference, otherwise the difference between instants.
func (t Timestamp) Since(o Timestamp) time.Duration {
	if !t.wall.IsZero() && !o.wall.IsZero() {
		return t.wall.Sub(o.wall)
	}
	return t.Time.Sub(o.Time)
}

// Equal compares instants, ignoring the original text.
func (t Timestamp) Equal(o Timestamp) bool { return t.Time.Equal(o.Time) }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return errors.New("null timestamp")
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}
