// Command simulator runs synthetic vessel traffic against the relay
// core: it spawns a fleet inside a configured operating area, dead
// reckons every vessel once per tick, feeds the position reports into
// the target registry, and probes the proximity locator while exposing
// Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/harborwave/maritime-relay/core"
	"github.com/harborwave/maritime-relay/geo"
	"github.com/harborwave/maritime-relay/id160"
	"github.com/harborwave/maritime-relay/internal/logging"
	"github.com/harborwave/maritime-relay/internal/observability"
	"github.com/harborwave/maritime-relay/timectrl"
)

func main() {
	scenarioPath := flag.String("scenario", "configs/fleet.yaml", "YAML fleet scenario")
	accelerated := flag.Bool("accelerated", false, "run as fast as possible instead of real-time")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	sc, err := LoadScenario(*scenarioPath)
	if err != nil {
		log.Error(ctx, "scenario load failed", logging.Err(err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	metrics, err := observability.NewRelayCollector(nil)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.Err(err))
		os.Exit(1)
	}

	tracker := core.NewTargetTracker(log, metrics)
	services := core.NewServices(tracker, log, metrics)

	go func() {
		http.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(sc.MetricsAddr, nil); err != nil {
			log.Warn(ctx, "metrics server stopped", logging.Err(err))
		}
	}()

	start := time.Now().UTC()
	fleet, err := spawnFleet(ctx, sc, tracker, log, metrics, start)
	if err != nil {
		log.Error(ctx, "fleet spawn failed", logging.Err(err))
		os.Exit(1)
	}
	log.Info(ctx, "fleet spawned",
		logging.Int("vessels", len(fleet)),
		logging.String("area", fmt.Sprintf("%+v", sc.Area)),
	)

	mode := timectrl.RealTime
	if *accelerated {
		mode = timectrl.Accelerated
	}
	controller := timectrl.NewTimeController(start, sc.Tick, mode)

	tick := 0
	controller.AddListener(func(simTime time.Time) {
		tick++
		for _, v := range fleet {
			v.advance(ctx, tracker, log, simTime)
		}
		if tick%sc.LocateEvery == 0 {
			probeLocate(ctx, sc, fleet, services, log)
		}
	})

	<-controller.Start(sc.Duration)

	for _, v := range fleet {
		v.conn.Disconnected(core.CloseNormal)
		tracker.Remove(v.id)
	}
	log.Info(ctx, "simulation finished", logging.Int("ticks", tick))
}

// vessel is one synthetic target: a course and speed that drift a little
// every tick, plus its relay-side connection.
type vessel struct {
	id       id160.Id160
	course   float64 // compass degrees
	speed    float64 // knots
	last     geo.PositionTime
	endpoint string
	conn     *core.Connection
}

// spawnFleet creates the vessels at random positions inside the
// operating area, registers their endpoints and connects them.
func spawnFleet(ctx context.Context, sc *Scenario, tracker *core.TargetTracker, log logging.Logger, metrics *observability.RelayCollector, start time.Time) ([]*vessel, error) {
	area := sc.OperatingArea()

	rnd := id160.Acquire()
	defer id160.Release(rnd)

	fleet := make([]*vessel, 0, sc.Vessels)
	for i := 0; i < sc.Vessels; i++ {
		pos, err := area.RandomPosition(rnd)
		if err != nil {
			return nil, err
		}
		course, err := rnd.Float64n(360)
		if err != nil {
			return nil, err
		}
		speed, err := rnd.Float64Range(sc.Speed.MinKnots, sc.Speed.MaxKnots)
		if err != nil {
			return nil, err
		}

		id := rnd.NextId160()
		target := tracker.Acquire(id)
		endpoint := sc.Endpoints[i%len(sc.Endpoints)]
		tracker.RegisterEndpoint(id, endpoint)

		v := &vessel{
			id:       id,
			course:   course,
			speed:    speed,
			last:     geo.PositionAt(pos, start),
			endpoint: endpoint,
		}
		v.conn = core.NewConnection(tracker, target, log, metrics, &trafficLogListener{log: log, id: id})
		v.conn.Connecting("sim://" + id.String())
		v.conn.Connected("sim://"+id.String(), false)

		tracker.UpdatePosition(id, v.last)
		fleet = append(fleet, v)
	}
	return fleet, nil
}

// advance dead-reckons the vessel to simTime and reports the position.
// Course drifts by a small gaussian wiggle so tracks are not straight
// lines forever.
func (v *vessel) advance(ctx context.Context, tracker *core.TargetTracker, log logging.Logger, simTime time.Time) {
	next, err := v.last.Extrapolate(v.course, v.speed, simTime)
	if err != nil {
		log.Warn(ctx, "extrapolation failed", logging.String("target", v.id.String()), logging.Err(err))
		return
	}
	v.last = next
	tracker.UpdatePosition(v.id, next)

	rnd := id160.Acquire()
	v.course += rnd.NormFloat64() * 3
	id160.Release(rnd)
	for v.course < 0 {
		v.course += 360
	}
	for v.course >= 360 {
		v.course -= 360
	}
}

// probeLocate runs a locate request from a random vessel's position.
func probeLocate(ctx context.Context, sc *Scenario, fleet []*vessel, services *core.Services, log logging.Logger) {
	if len(fleet) == 0 {
		return
	}
	rnd := id160.Acquire()
	i, err := rnd.Intn(len(fleet))
	id160.Release(rnd)
	if err != nil {
		return
	}

	requester := fleet[i]
	pos := requester.last.Position
	found := services.Locate(ctx, requester.id, &pos, requester.endpoint, sc.LocateRadiusM, 10)
	log.Info(ctx, "locate probe",
		logging.String("requester", requester.id.String()),
		logging.String("endpoint", requester.endpoint),
		logging.Float64("radius_m", sc.LocateRadiusM),
		logging.Int("found", len(found)),
	)
}

// trafficLogListener logs connection lifecycle events for one vessel.
type trafficLogListener struct {
	log logging.Logger
	id  id160.Id160
}

func (l *trafficLogListener) Connecting(remote string) {
	l.log.Debug(context.Background(), "connecting", logging.String("remote", remote))
}

func (l *trafficLogListener) Connected(remote string, resumed bool) {
	l.log.Info(context.Background(), "connected",
		logging.String("target", l.id.String()),
		logging.Any("resumed", resumed),
	)
}

func (l *trafficLogListener) Disconnected(code core.CloseCode) {
	l.log.Info(context.Background(), "disconnected",
		logging.String("target", l.id.String()),
		logging.String("code", code.String()),
	)
}

func (l *trafficLogListener) BinaryMessageReceived(message []byte) {}
func (l *trafficLogListener) BinaryMessageSent(message []byte)    {}
func (l *trafficLogListener) TextMessageReceived(message string)  {}
func (l *trafficLogListener) TextMessageSent(message string)      {}
