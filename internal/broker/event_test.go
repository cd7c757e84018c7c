package broker

import (
	"testing"
	"time"
)

func TestEventRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	data, err := EncodeEvent("authentication failed", false, now, []any{"login", "user1", "vectors", 3})
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}

	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	if ev.Message != "authentication failed" {
		t.Errorf("Message = %q", ev.Message)
	}
	if ev.Critical {
		t.Error("Critical = true, want false")
	}
	if !ev.Time.Equal(now) {
		t.Errorf("Time = %v, want %v", ev.Time, now)
	}
	if ev.Attrs["login"] != "user1" || ev.Attrs["vectors"] != "3" {
		t.Errorf("Attrs = %v", ev.Attrs)
	}
	if ev.Kind() != KindInfo {
		t.Errorf("Kind = %q, want %q", ev.Kind(), KindInfo)
	}
}

func TestEventOddAttrsDropped(t *testing.T) {
	data, err := EncodeEvent("x", true, time.Now(), []any{"dangling"})
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if len(ev.Attrs) != 0 {
		t.Errorf("Attrs = %v, want empty", ev.Attrs)
	}
	if ev.Kind() != KindCritical {
		t.Errorf("Kind = %q, want %q", ev.Kind(), KindCritical)
	}
}

func TestSubject(t *testing.T) {
	if got := Subject("scale.events", true); got != "scale.events.critical" {
		t.Errorf("Subject(critical) = %q", got)
	}
	if got := Subject("scale.events", false); got != "scale.events.info" {
		t.Errorf("Subject(info) = %q", got)
	}
}

func TestDecodeEventGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("expected error for garbage input")
	}
}
