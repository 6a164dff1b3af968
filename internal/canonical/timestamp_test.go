package canonical

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimestamp_Seconds(t *testing.T) {
	ts := ParseTimestamp(int64(1700000000))
	if ts == nil {
		t.Fatal("expected non-nil timestamp")
	}
	if ts.Unix() != 1700000000 {
		t.Errorf("unix = %d, want 1700000000", ts.Unix())
	}
}

func TestParseTimestamp_Milliseconds(t *testing.T) {
	// Above 1e10 the value is read as milliseconds.
	ts := ParseTimestamp(int64(1700000000000))
	if ts == nil {
		t.Fatal("expected non-nil timestamp")
	}
	if ts.Unix() != 1700000000 {
		t.Errorf("unix = %d, want 1700000000", ts.Unix())
	}
}

func TestParseTimestamp_ISO8601(t *testing.T) {
	ts := ParseTimestamp("2023-11-14T22:13:20Z")
	if ts == nil {
		t.Fatal("expected non-nil timestamp")
	}
	if ts.Unix() != 1700000000 {
		t.Errorf("unix = %d, want 1700000000", ts.Unix())
	}
}

func TestParseTimestamp_JSONNumber(t *testing.T) {
	ts := ParseTimestamp(json.Number("1700000000"))
	if ts == nil {
		t.Fatal("expected non-nil timestamp")
	}
	if ts.Unix() != 1700000000 {
		t.Errorf("unix = %d, want 1700000000", ts.Unix())
	}
}

func TestParseTimestamp_Rejects(t *testing.T) {
	cases := []any{
		nil,
		"",
		"not a date",
		int64(0),
		int64(-5),
		[]string{"nope"},
		map[string]any{},
		time.Time{},
	}
	for _, in := range cases {
		if got := ParseTimestamp(in); got != nil {
			t.Errorf("ParseTimestamp(%v) = %v, want nil", in, got)
		}
	}
}
