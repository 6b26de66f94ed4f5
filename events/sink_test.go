package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
)

func TestAuthEvent_Builders(t *testing.T) {
	e := New(EventTokenCreated, SeverityInfo, "user-1", "client-1").
		WithMetadata("scope", "read").
		WithError("boom")

	if e.ID == "" {
		t.Error("event id is empty")
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
	if e.Metadata["scope"] != "read" {
		t.Errorf("Metadata[scope] = %q", e.Metadata["scope"])
	}
	if e.Error != "boom" {
		t.Errorf("Error = %q", e.Error)
	}
}

func TestAuthEvent_JSON(t *testing.T) {
	e := New(EventClientRegistered, SeverityInfo, "", "client-1")

	body, err := e.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["event_type"] != "client_registered" {
		t.Errorf("event_type = %v", decoded["event_type"])
	}
	if _, ok := decoded["user_id"]; ok {
		t.Error("empty user_id serialized, want omitted")
	}
}

func TestMemorySink_Eviction(t *testing.T) {
	sink := NewMemorySink(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := New(EventTokenCreated, SeverityInfo, fmt.Sprintf("user-%d", i), "client-1")
		if err := sink.Emit(ctx, e); err != nil {
			t.Fatalf("Emit() error = %v", err)
		}
	}

	got := sink.Events()
	if len(got) != 3 {
		t.Fatalf("retained %d events, want 3", len(got))
	}
	// Oldest evicted first.
	if got[0].UserID != "user-2" || got[2].UserID != "user-4" {
		t.Errorf("retained window = [%s..%s], want [user-2..user-4]", got[0].UserID, got[2].UserID)
	}
}

func TestMemorySink_Recent(t *testing.T) {
	sink := NewMemorySink(10)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		sink.Emit(ctx, New(EventTokenCreated, SeverityInfo, fmt.Sprintf("user-%d", i), ""))
	}

	recent := sink.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d events", len(recent))
	}
	if recent[0].UserID != "user-2" || recent[1].UserID != "user-3" {
		t.Errorf("Recent(2) = [%s, %s], want [user-2, user-3]", recent[0].UserID, recent[1].UserID)
	}

	sink.Clear()
	if len(sink.Events()) != 0 {
		t.Error("Clear() left events behind")
	}
}

func TestLogSink_Emit(t *testing.T) {
	sink := NewLogSink(nil)

	for _, sev := range []Severity{SeverityInfo, SeverityWarning, SeverityError} {
		e := New(EventUserAuthenticationFailed, sev, "user-1", "client-1").WithError("denied")
		if err := sink.Emit(context.Background(), e); err != nil {
			t.Errorf("Emit(%s) error = %v", sev, err)
		}
	}
}
