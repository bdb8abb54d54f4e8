package events

import "testing"

func TestOutboxDrainPreservesOrder(t *testing.T) {
	var o Outbox
	o.Append(New(EventTypeFoodEaten, 1))
	o.Append(New(EventTypeNewHighScore, 1))

	got := o.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != EventTypeFoodEaten || got[1].Type != EventTypeNewHighScore {
		t.Errorf("unexpected order: %s, %s", got[0].Type, got[1].Type)
	}
	if o.Len() != 0 {
		t.Errorf("outbox not empty after drain: %d", o.Len())
	}
	if again := o.Drain(); again != nil {
		t.Errorf("second drain returned %v", again)
	}
}

func TestEventIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateEventID()
		if seen[id] {
			t.Fatalf("duplicate event id %s", id)
		}
		seen[id] = true
	}
}
