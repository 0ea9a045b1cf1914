package deviation

import (
	"fmt"

	"github.com/zeu5/osm-deviation-rl/network"
	"github.com/zeu5/osm-deviation-rl/types"
)

// Scenario is a disruption to learn on: a trip, the ways blocked on it and
// optionally the way the vehicle starts on
type Scenario struct {
	Trip    *network.Trip
	Blocked []network.WayID
	// Start is drawn from the trip ways before the first blocked way when 0.
	// A scenario blocking the first trip way needs an explicit start.
	Start network.WayID
}

// WayTask exposes the environment to a tabular agent. The state is the way
// the vehicle is on and action k moves to the k-th neighbor of that way.
type WayTask struct {
	env       *Environment
	scenarios []Scenario
	current   int
}

var _ types.Environment = &WayTask{}

// NewWayTask validates the scenarios against the graph of the environment
func NewWayTask(env *Environment, scenarios []Scenario) (*WayTask, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("way task needs a scenario: %w", ErrInvalidArgument)
	}
	g := env.Graph()
	for i, s := range scenarios {
		if s.Trip == nil || len(s.Trip.Ways) == 0 {
			return nil, fmt.Errorf("scenario %d has no trip: %w", i, ErrInvalidArgument)
		}
		if err := s.Trip.Validate(g); err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i, err)
		}
		for _, b := range s.Blocked {
			if !g.Has(b) {
				return nil, fmt.Errorf("scenario %d blocks unknown way %d: %w", i, b, ErrInvalidArgument)
			}
		}
		if s.Start != 0 && !g.Has(s.Start) {
			return nil, fmt.Errorf("scenario %d starts on unknown way %d: %w", i, s.Start, ErrInvalidArgument)
		}
		if s.Start == 0 && firstBlocked(s) == 0 {
			return nil, fmt.Errorf("scenario %d blocks the first trip way and has no start: %w", i, ErrInvalidArgument)
		}
	}
	return &WayTask{
		env:       env,
		scenarios: scenarios,
	}, nil
}

// Environment returns the wrapped environment
func (t *WayTask) Environment() *Environment {
	return t.env
}

// Scenario returns the scenario of the running episode
func (t *WayTask) Scenario() Scenario {
	return t.scenarios[t.current]
}

func (t *WayTask) ActionSpace() int {
	return t.env.Graph().MaxDegree()
}

// Reset picks a scenario, places the vehicle and blocks the scenario ways
func (t *WayTask) Reset() (types.StateKey, error) {
	t.current = t.env.Rand().Intn(len(t.scenarios))
	s := t.scenarios[t.current]

	t.env.Reset()
	if err := t.env.SetTrip(s.Trip, t.start(s)); err != nil {
		return types.StateKey{}, err
	}
	for _, b := range s.Blocked {
		if err := t.env.SetNetworkState(network.ByWay(b), false); err != nil {
			return types.StateKey{}, err
		}
	}
	return t.key(), nil
}

// start returns the scenario start or a trip way before the first blocked one
func (t *WayTask) start(s Scenario) network.WayID {
	if s.Start != 0 {
		return s.Start
	}
	return s.Trip.Ways[t.env.Rand().Intn(firstBlocked(s))]
}

// firstBlocked is the trip index of the first blocked way, the trip length
// when no trip way is blocked
func firstBlocked(s Scenario) int {
	first := len(s.Trip.Ways)
	for _, b := range s.Blocked {
		if i := s.Trip.IndexOf(b); i >= 0 && i < first {
			first = i
		}
	}
	return first
}

func (t *WayTask) Step(action int) (types.StateKey, float64, bool, error) {
	links := t.env.Graph().Links(t.env.VehiclePosition())
	if action < 0 || action >= len(links) {
		return types.StateKey{}, 0, false, fmt.Errorf("action slot %d at way %d: %w", action, t.env.VehiclePosition(), ErrInvalidArgument)
	}
	_, reward, done, _, err := t.env.Step(links[action])
	if err != nil {
		return types.StateKey{}, 0, false, err
	}
	return t.key(), reward, done, nil
}

// ValidActions maps the available ways to their neighbor slots
func (t *WayTask) ValidActions() []int {
	available := t.env.AvailableActions()
	offered := make(map[network.WayID]bool, len(available))
	for _, a := range available {
		offered[a] = true
	}
	out := make([]int, 0, len(available))
	for k, n := range t.env.Graph().Links(t.env.VehiclePosition()) {
		if offered[n] {
			out = append(out, k)
		}
	}
	return out
}

// WayOf translates an action slot at the current position into the way it leads to
func (t *WayTask) WayOf(action int) (network.WayID, bool) {
	links := t.env.Graph().Links(t.env.VehiclePosition())
	if action < 0 || action >= len(links) {
		return 0, false
	}
	return links[action], true
}

func (t *WayTask) key() types.StateKey {
	return types.Key(int64(t.env.VehiclePosition()))
}
