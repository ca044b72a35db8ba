package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harborwave/maritime-relay/core"
	"github.com/harborwave/maritime-relay/internal/logging"
	"github.com/harborwave/maritime-relay/timectrl"
)

const scenarioYAML = `
area:
  minLat: 54.5
  minLon: 10.0
  maxLat: 56.0
  maxLon: 13.0
vessels: 6
endpoints: [ais, weather]
tick: 1s
duration: 10s
speed:
  minKnots: 5
  maxKnots: 15
locateEvery: 2
locateRadiusM: 100000
metricsAddr: ":0"
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario(strings.NewReader(scenarioYAML))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	if sc.Vessels != 6 {
		t.Fatalf("Vessels = %d, want 6", sc.Vessels)
	}
	if len(sc.Endpoints) != 2 || sc.Endpoints[0] != "ais" {
		t.Fatalf("Endpoints = %v", sc.Endpoints)
	}
	if sc.Tick != time.Second || sc.Duration != 10*time.Second {
		t.Fatalf("Tick/Duration = %v/%v", sc.Tick, sc.Duration)
	}
	if sc.Speed.MaxKnots != 15 {
		t.Fatalf("MaxKnots = %v, want 15", sc.Speed.MaxKnots)
	}

	area := sc.OperatingArea()
	if tl := area.TopLeft(); tl.Latitude() != 56.0 || tl.Longitude() != 10.0 {
		t.Fatalf("TopLeft = %v", tl)
	}
}

func TestParseScenarioDefaults(t *testing.T) {
	sc, err := ParseScenario(strings.NewReader("area: {minLat: 54, minLon: 10, maxLat: 56, maxLon: 13}"))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	if sc.Vessels != 25 {
		t.Fatalf("default Vessels = %d, want 25", sc.Vessels)
	}
	if len(sc.Endpoints) != 1 || sc.Endpoints[0] != "ais" {
		t.Fatalf("default Endpoints = %v", sc.Endpoints)
	}
	if sc.Tick != time.Second {
		t.Fatalf("default Tick = %v", sc.Tick)
	}
	if sc.Speed.MinKnots != 4 || sc.Speed.MaxKnots != 14 {
		t.Fatalf("default Speed = %+v", sc.Speed)
	}
	if sc.LocateEvery != 5 || sc.LocateRadiusM != 50000 {
		t.Fatalf("default probe settings = %d/%v", sc.LocateEvery, sc.LocateRadiusM)
	}
}

func TestParseScenarioRejectsBadArea(t *testing.T) {
	_, err := ParseScenario(strings.NewReader("area: {minLat: 95, minLon: 10, maxLat: 56, maxLon: 13}"))
	if err == nil {
		t.Fatal("out-of-range scenario area accepted")
	}
	_, err = ParseScenario(strings.NewReader("vessels: [not, a, number]"))
	if err == nil {
		t.Fatal("malformed YAML accepted")
	}
}

// TestIntegration_FleetTick runs a tiny accelerated simulation end to end:
// spawn, dead reckon per tick, locate, disconnect.
func TestIntegration_FleetTick(t *testing.T) {
	sc, err := ParseScenario(strings.NewReader(scenarioYAML))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}

	ctx := context.Background()
	log := logging.Noop()
	tracker := core.NewTargetTracker(log, nil)
	services := core.NewServices(tracker, log, nil)

	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	fleet, err := spawnFleet(ctx, sc, tracker, log, nil, start)
	if err != nil {
		t.Fatalf("spawnFleet: %v", err)
	}
	if len(fleet) != sc.Vessels {
		t.Fatalf("spawned %d vessels, want %d", len(fleet), sc.Vessels)
	}
	if got := tracker.Len(); got != sc.Vessels {
		t.Fatalf("tracker holds %d targets, want %d", got, sc.Vessels)
	}
	for _, v := range fleet {
		if !v.conn.IsConnected() {
			t.Fatalf("vessel %s not connected after spawn", v.id)
		}
	}

	first := fleet[0].last
	controller := timectrl.NewTimeController(start, sc.Tick, timectrl.Accelerated)
	controller.AddListener(func(simTime time.Time) {
		for _, v := range fleet {
			v.advance(ctx, tracker, log, simTime)
		}
	})
	<-controller.Start(5 * sc.Tick)

	moved := fleet[0].last
	if moved.Equal(first) {
		t.Fatal("vessel did not move over five ticks")
	}
	if !moved.Time().After(first.Time()) {
		t.Fatalf("vessel time did not advance: %v -> %v", first.Time(), moved.Time())
	}

	// Every vessel's tracked position matches its local state.
	for _, v := range fleet {
		pt := tracker.Get(v.id).Position()
		if pt == nil || !pt.Equal(v.last) {
			t.Fatalf("tracker position for %s out of sync", v.id)
		}
	}

	// A locate from one vessel may or may not find neighbours in a random
	// spawn, but must never return the requester.
	req := fleet[0]
	pos := req.last.Position
	for _, id := range services.Locate(ctx, req.id, &pos, req.endpoint, sc.LocateRadiusM, 10) {
		if id == req.id {
			t.Fatal("locate returned the requester")
		}
	}

	for _, v := range fleet {
		v.conn.Disconnected(core.CloseNormal)
		tracker.Remove(v.id)
	}
	if got := tracker.Len(); got != 0 {
		t.Fatalf("tracker holds %d targets after teardown, want 0", got)
	}
}
