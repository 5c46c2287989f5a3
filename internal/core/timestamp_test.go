package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2023-10-12 20:15:30", true},
		{"2023-01-01 00:00:00", true},
		{"2024-02-29 23:59:59", true}, // leap day
		{"2023-02-29 00:00:00", false},
		{"2023-02-30 10:00:00", false}, // never clamped
		{"2023-13-01 00:00:00", false},
		{"2023-10-12 24:00:00", false},
		{"2023-10-12 20:15", false}, // missing seconds
		{"2023-10-12T20:15:30", false},
		{"23-10-12 20:15:30", false},
		{"2023-1-12 20:15:30", false}, // unpadded month
		{"2023-10-12 20:15:30 ", false},
		{"", false},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in, "timestamp")
		if tc.ok {
			if err != nil {
				t.Fatalf("%q expected ok, got %v", tc.in, err)
			}
			if FormatTimestamp(got) != tc.in {
				t.Fatalf("%q did not round-trip, got %q", tc.in, FormatTimestamp(got))
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseTimestampErrorNamesFormat(t *testing.T) {
	_, err := ParseTimestamp("2023-10-12 20:15", "transactions[0].timestamp")
	if err == nil {
		t.Fatal("expected error")
	}
	var te *InvalidTimestampError
	if !errors.As(err, &te) {
		t.Fatalf("expected InvalidTimestampError, got %T", err)
	}
	if !strings.Contains(err.Error(), "YYYY-MM-DD HH:mm:ss") {
		t.Fatalf("message should name the required format, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "transactions[0].timestamp") {
		t.Fatalf("message should name the field, got %q", err.Error())
	}
}

func TestInstantOffset(t *testing.T) {
	// Midnight IST on the Unix epoch day is 5h30m before midnight UTC.
	got, err := ParseTimestamp("1970-01-01 05:30:00", "timestamp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected instant 0, got %d", got)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, i := range []Instant{0, 1, 1697121930, 4102444799, -1} {
		text := FormatTimestamp(i)
		back, err := ParseTimestamp(text, "timestamp")
		if err != nil || back != i {
			t.Fatalf("instant %d round-trip via %q gave %d (err=%v)", i, text, back, err)
		}
	}
}
