package core

import (
	"context"
	"testing"

	"github.com/harborwave/maritime-relay/geo"
	"github.com/harborwave/maritime-relay/id160"
)

func newTestServices(t *testing.T) (*Services, *TargetTracker) {
	t.Helper()
	tracker := NewTargetTracker(nil, nil)
	return NewServices(tracker, nil, nil), tracker
}

func TestLocateNearestWithinRadius(t *testing.T) {
	svc, tracker := newTestServices(t)

	// A sits on the requester, B ~111 m east, C far away. All three
	// advertise the endpoint; D is the requester.
	a, b, c, d := testID(1), testID(2), testID(3), testID(4)
	tracker.UpdatePosition(a, timedPosition(t, 0, 0))
	tracker.UpdatePosition(b, timedPosition(t, 0, 0.001))
	tracker.UpdatePosition(c, timedPosition(t, 10, 10))
	for _, id := range []id160.Id160{a, b, c} {
		tracker.RegisterEndpoint(id, "ais")
	}

	pos := geo.MustPosition(0, 0.0005)
	got := svc.Locate(context.Background(), d, &pos, "ais", 200, 5)
	if len(got) != 2 {
		t.Fatalf("Locate returned %d ids, want 2", len(got))
	}
	if got[0] != a && got[0] != b {
		t.Fatalf("Locate[0] = %s, want a or b", got[0])
	}

	// From D at A's own position, A is nearest and C is out of radius.
	origin := geo.MustPosition(0, 0)
	got = svc.Locate(context.Background(), d, &origin, "ais", 200, 5)
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("Locate = %v, want [a b]", got)
	}
}

func TestLocateExcludesRequester(t *testing.T) {
	svc, tracker := newTestServices(t)

	a, b := testID(1), testID(2)
	tracker.UpdatePosition(a, timedPosition(t, 0, 0))
	tracker.UpdatePosition(b, timedPosition(t, 0, 0.001))
	tracker.RegisterEndpoint(a, "ais")
	tracker.RegisterEndpoint(b, "ais")

	pos := geo.MustPosition(0, 0)
	got := svc.Locate(context.Background(), a, &pos, "ais", 0, 0)
	if len(got) != 1 || got[0] != b {
		t.Fatalf("Locate = %v, want only b", got)
	}
}

func TestLocateFiltersByEndpoint(t *testing.T) {
	svc, tracker := newTestServices(t)

	a, b := testID(1), testID(2)
	tracker.UpdatePosition(a, timedPosition(t, 0, 0))
	tracker.UpdatePosition(b, timedPosition(t, 0, 0))
	tracker.RegisterEndpoint(a, "ais")
	tracker.RegisterEndpoint(b, "weather")

	pos := geo.MustPosition(0, 0)
	got := svc.Locate(context.Background(), testID(9), &pos, "weather", 0, 0)
	if len(got) != 1 || got[0] != b {
		t.Fatalf("Locate = %v, want only b", got)
	}

	got = svc.Locate(context.Background(), testID(9), &pos, "nonexistent", 0, 0)
	if len(got) != 0 {
		t.Fatalf("Locate of unknown endpoint = %v, want empty", got)
	}
}

func TestLocateUnboundedRadiusAndTruncation(t *testing.T) {
	svc, tracker := newTestServices(t)

	for i := byte(1); i <= 5; i++ {
		id := testID(i)
		tracker.UpdatePosition(id, timedPosition(t, 0, float64(i)*0.001))
		tracker.RegisterEndpoint(id, "ais")
	}

	pos := geo.MustPosition(0, 0)

	// radius <= 0 is unbounded.
	got := svc.Locate(context.Background(), testID(9), &pos, "ais", 0, 0)
	if len(got) != 5 {
		t.Fatalf("unbounded Locate returned %d ids, want 5", len(got))
	}
	// Sorted ascending by distance.
	for i, id := range got {
		if id != testID(byte(i+1)) {
			t.Fatalf("Locate[%d] = %s, want %s", i, id, testID(byte(i+1)))
		}
	}

	got = svc.Locate(context.Background(), testID(9), &pos, "ais", 0, 3)
	if len(got) != 3 || got[0] != testID(1) || got[2] != testID(3) {
		t.Fatalf("truncated Locate = %v, want three nearest", got)
	}
}

func TestLocateWithoutRequesterPosition(t *testing.T) {
	svc, tracker := newTestServices(t)

	a, b := testID(1), testID(2)
	tracker.UpdatePosition(a, timedPosition(t, 0, 0))
	tracker.RegisterEndpoint(a, "ais")
	tracker.RegisterEndpoint(b, "ais") // b never reported a position

	// Without a position the radius is ignored and positionless targets
	// still qualify.
	got := svc.Locate(context.Background(), testID(9), nil, "ais", 1, 0)
	if len(got) != 2 {
		t.Fatalf("positionless Locate returned %d ids, want 2", len(got))
	}
}

func TestLocateSkipsPositionlessWhenRadiusApplies(t *testing.T) {
	svc, tracker := newTestServices(t)

	a, b := testID(1), testID(2)
	tracker.UpdatePosition(a, timedPosition(t, 0, 0))
	tracker.RegisterEndpoint(a, "ais")
	tracker.RegisterEndpoint(b, "ais")

	pos := geo.MustPosition(0, 0)
	got := svc.Locate(context.Background(), testID(9), &pos, "ais", 1000, 0)
	if len(got) != 1 || got[0] != a {
		t.Fatalf("Locate = %v, want only the positioned target", got)
	}
}

func TestLocateEmptyRegistry(t *testing.T) {
	svc, _ := newTestServices(t)
	pos := geo.MustPosition(0, 0)
	got := svc.Locate(context.Background(), testID(1), &pos, "ais", 100, 10)
	if len(got) != 0 {
		t.Fatalf("Locate over empty registry = %v, want empty", got)
	}
}

func TestUnregisterRemovesFromResults(t *testing.T) {
	svc, tracker := newTestServices(t)

	a := testID(1)
	tracker.UpdatePosition(a, timedPosition(t, 0, 0))
	svc.RegisterEndpoint(a, "ais")

	pos := geo.MustPosition(0, 0)
	if got := svc.Locate(context.Background(), testID(9), &pos, "ais", 0, 0); len(got) != 1 {
		t.Fatalf("Locate before unregister = %v, want one id", got)
	}

	svc.UnregisterEndpoint(a, "ais")
	if got := svc.Locate(context.Background(), testID(9), &pos, "ais", 0, 0); len(got) != 0 {
		t.Fatalf("Locate after unregister = %v, want empty", got)
	}
}
