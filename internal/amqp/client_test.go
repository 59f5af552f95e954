package amqp

import (
	"errors"
	"testing"
	"time"
)

func TestLedgerAppendedMessageRoundTrip(t *testing.T) {
	msg := NewLedgerAppendedMessage("20251203", "DEV_20251203.csv", 5)
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := LedgerAppendedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Bucket != "20251203" || got.File != "DEV_20251203.csv" || got.Rows != 5 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLedgerAppendedMessageFromJSONInvalid(t *testing.T) {
	if _, err := LedgerAppendedMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{20, 30 * time.Second},
		{63, 30 * time.Second}, // shift overflow guard
	}
	for _, tc := range cases {
		if got := Backoff(tc.attempt); got != tc.want {
			t.Fatalf("Backoff(%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		{errors.New("Exception (504) Reason: \"channel/connection is not open\""), true},
		{errors.New("read tcp: unexpected EOF"), true},
		// A consume loop whose delivery channel closes must trigger the
		// worker's reconnect path, not a fatal exit.
		{errors.New("message channel closed"), true},
		{errors.New("handler: report build failed"), false},
	}
	for _, tc := range cases {
		if got := IsConnectionError(tc.err); got != tc.want {
			t.Fatalf("IsConnectionError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
