package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harborwave/maritime-relay/geo"
)

// Scenario describes a synthetic fleet: where it sails, how many vessels,
// which endpoints they advertise and how fast time moves.
type Scenario struct {
	Area struct {
		MinLatitude  float64 `yaml:"minLat"`
		MinLongitude float64 `yaml:"minLon"`
		MaxLatitude  float64 `yaml:"maxLat"`
		MaxLongitude float64 `yaml:"maxLon"`
	} `yaml:"area"`

	Vessels   int      `yaml:"vessels"`
	Endpoints []string `yaml:"endpoints"`

	Tick     time.Duration `yaml:"tick"`
	Duration time.Duration `yaml:"duration"`

	Speed struct {
		MinKnots float64 `yaml:"minKnots"`
		MaxKnots float64 `yaml:"maxKnots"`
	} `yaml:"speed"`

	LocateEvery   int     `yaml:"locateEvery"`   // ticks between locate probes
	LocateRadiusM float64 `yaml:"locateRadiusM"` // probe radius, metres
	MetricsAddr   string  `yaml:"metricsAddr"`
}

// LoadScenario reads and validates a YAML scenario.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario %q: %w", path, err)
	}
	defer f.Close()
	return ParseScenario(f)
}

// ParseScenario decodes a scenario from YAML and applies defaults.
func ParseScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	if err := yaml.NewDecoder(r).Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	if sc.Vessels <= 0 {
		sc.Vessels = 25
	}
	if len(sc.Endpoints) == 0 {
		sc.Endpoints = []string{"ais"}
	}
	if sc.Tick <= 0 {
		sc.Tick = time.Second
	}
	if sc.Speed.MinKnots <= 0 {
		sc.Speed.MinKnots = 4
	}
	if sc.Speed.MaxKnots <= sc.Speed.MinKnots {
		sc.Speed.MaxKnots = sc.Speed.MinKnots + 10
	}
	if sc.LocateEvery <= 0 {
		sc.LocateEvery = 5
	}
	if sc.LocateRadiusM <= 0 {
		sc.LocateRadiusM = 50000
	}
	if sc.MetricsAddr == "" {
		sc.MetricsAddr = ":9090"
	}

	if _, err := geo.NewPosition(sc.Area.MinLatitude, sc.Area.MinLongitude); err != nil {
		return nil, fmt.Errorf("scenario area: %w", err)
	}
	if _, err := geo.NewPosition(sc.Area.MaxLatitude, sc.Area.MaxLongitude); err != nil {
		return nil, fmt.Errorf("scenario area: %w", err)
	}
	return &sc, nil
}

// OperatingArea returns the rectangle the fleet sails in.
func (sc *Scenario) OperatingArea() geo.Rectangle {
	return geo.NewRectangle(
		geo.MustPosition(sc.Area.MaxLatitude, sc.Area.MinLongitude),
		geo.MustPosition(sc.Area.MinLatitude, sc.Area.MaxLongitude),
	)
}
