package deviation

import (
	"fmt"

	"github.com/zeu5/osm-deviation-rl/network"
	"golang.org/x/exp/rand"
)

// ErrInvalidArgument is the error returned for rejected arguments
var ErrInvalidArgument = network.ErrInvalidArgument

// Mode of the environment state machine
type Mode uint8

const (
	// Idle: no trip is set, every way is terminal
	Idle Mode = iota
	// OnTripNoDisruption: a trip is set but none of its ways is blocked, behaves as Idle
	OnTripNoDisruption
	// OnTripDisrupted: at least one trip way is blocked
	OnTripDisrupted
)

func (m Mode) String() string {
	switch m {
	case OnTripNoDisruption:
		return "on-trip"
	case OnTripDisrupted:
		return "disrupted"
	default:
		return "idle"
	}
}

// Observation is what an agent sees after reset and every step
type Observation struct {
	VehiclePosition network.WayID `json:"vehicle_position"`
	NetworkState    []bool        `json:"network_state"`
}

// Info carries the classification sets and the visited path
type Info struct {
	StartStates       []network.WayID `json:"start_states"`
	TerminalStates    []network.WayID `json:"terminal_states"`
	DeviationStates   []network.WayID `json:"deviation_states"`
	UnreachableStates []network.WayID `json:"unreachable_states"`
	VisitedPath       []network.WayID `json:"visited_path"`
}

// Environment simulates a vehicle on a way graph that has to get around
// blocked ways of its trip. All randomness comes from the generator owned by
// the environment so that runs are reproducible for a seed.
type Environment struct {
	graph   *network.Graph
	state   *network.NetworkState
	trip    *network.Trip
	classes *Classification

	// vehicle position as way index
	vehicle int
	// visited path as way indices, oldest first
	visited []int
	// action set handed out by the last AvailableActions call, nil if stale
	offered map[int]bool

	rand *rand.Rand
}

// NewEnvironment creates an environment over the graph with a seeded generator.
// The vehicle starts on a uniformly drawn way.
func NewEnvironment(graph *network.Graph, seed uint64) (*Environment, error) {
	if graph == nil || graph.Size() == 0 {
		return nil, fmt.Errorf("environment needs a non empty graph: %w", ErrInvalidArgument)
	}
	e := &Environment{
		graph:   graph,
		state:   network.NewNetworkState(graph.Size()),
		classes: newClassification(graph.Size()),
		visited: make([]int, 0),
		rand:    rand.New(rand.NewSource(seed)),
	}
	e.vehicle = e.rand.Intn(graph.Size())
	e.reclassify()
	return e, nil
}

// Graph returns the underlying way graph
func (e *Environment) Graph() *network.Graph {
	return e.graph
}

// Rand returns the generator owned by the environment
func (e *Environment) Rand() *rand.Rand {
	return e.rand
}

// Trip returns the active trip, nil when idle
func (e *Environment) Trip() *network.Trip {
	return e.trip
}

// VehiclePosition returns the way the vehicle is on
func (e *Environment) VehiclePosition() network.WayID {
	return e.graph.ID(e.vehicle)
}

// Classification returns the current classification
func (e *Environment) Classification() *Classification {
	return e.classes
}

// Mode returns the current state machine mode
func (e *Environment) Mode() Mode {
	switch {
	case e.trip == nil:
		return Idle
	case e.classes.Disrupted():
		return OnTripDisrupted
	default:
		return OnTripNoDisruption
	}
}

// Reset draws a new vehicle position, makes every way usable and forgets the
// visited path. The trip stays in place.
func (e *Environment) Reset() (Observation, Info) {
	e.vehicle = e.rand.Intn(e.graph.Size())
	e.state.Clear()
	e.visited = e.visited[:0]
	e.reclassify()
	return e.observation(), e.info()
}

// SetTrip replaces the active trip, nil clears it. A non zero position must be
// a way of the graph and moves the vehicle there.
func (e *Environment) SetTrip(trip *network.Trip, position network.WayID) error {
	if trip != nil {
		if err := trip.Validate(e.graph); err != nil {
			return err
		}
	}
	vehicle := e.vehicle
	if position != 0 {
		i, ok := e.graph.Index(position)
		if !ok {
			return fmt.Errorf("position %d: %w", position, ErrInvalidArgument)
		}
		vehicle = i
	}
	e.trip = trip
	e.vehicle = vehicle
	e.visited = e.visited[:0]
	e.reclassify()
	return nil
}

// NetworkState reports whether the selected way is usable
func (e *Environment) NetworkState(sel network.Selector) (bool, error) {
	i, err := e.graph.Resolve(sel)
	if err != nil {
		return false, err
	}
	return e.state.Usable(i), nil
}

// SetNetworkState changes the usability of the selected way. This is the only
// way a trip becomes disrupted.
func (e *Environment) SetNetworkState(sel network.Selector, usable bool) error {
	i, err := e.graph.Resolve(sel)
	if err != nil {
		return err
	}
	e.state.Set(i, usable)
	e.reclassify()
	return nil
}

// ClassOf returns the class of the selected way
func (e *Environment) ClassOf(sel network.Selector) (Class, error) {
	i, err := e.graph.Resolve(sel)
	if err != nil {
		return Terminal, err
	}
	return e.classes.Of(i), nil
}

// DeviationRequired reports whether a way of the active trip is blocked
func (e *Environment) DeviationRequired() bool {
	return e.trip != nil && e.classes.Disrupted()
}

// VisitedPath returns the ways visited in this episode, oldest first
func (e *Environment) VisitedPath() []network.WayID {
	return e.ids(e.visited)
}

// AvailableActions returns the ways the vehicle can move to. Unreachable ways
// are never offered and ways already on the visited path are skipped. When
// every remaining neighbor was visited, the visited path is cut back right
// after the oldest visited way that is still a neighbor and all remaining
// neighbors are offered, so the vehicle can leave a loop.
func (e *Environment) AvailableActions() []network.WayID {
	reachable := e.reachableNeighbors()
	candidates, allVisited := e.filterVisited(reachable)
	if allVisited {
		e.rewind(reachable)
		candidates = reachable
	}
	e.offered = make(map[int]bool, len(candidates))
	for _, c := range candidates {
		e.offered[c] = true
	}
	return e.ids(candidates)
}

// Step moves the vehicle onto the action way. The action has to be one of
// the available actions, otherwise nothing changes and ErrInvalidArgument is
// returned.
func (e *Environment) Step(action network.WayID) (Observation, float64, bool, Info, error) {
	target, ok := e.graph.Index(action)
	if !ok || !e.isAvailable(target) {
		return Observation{}, 0, false, Info{}, fmt.Errorf("action %d not available at way %d: %w", action, e.VehiclePosition(), ErrInvalidArgument)
	}

	from := e.classes.Of(e.vehicle)
	to := e.classes.Of(target)

	e.vehicle = target
	e.visited = append(e.visited, target)
	e.offered = nil

	terminated := to == Terminal
	return e.observation(), Reward(from, to), terminated, e.info(), nil
}

// State returns the current observation and info without changing anything
func (e *Environment) State() (Observation, Info) {
	return e.observation(), e.info()
}

func (e *Environment) isAvailable(target int) bool {
	if e.offered != nil {
		return e.offered[target]
	}
	reachable := e.reachableNeighbors()
	candidates, allVisited := e.filterVisited(reachable)
	if allVisited {
		candidates = reachable
	}
	for _, c := range candidates {
		if c == target {
			return true
		}
	}
	return false
}

func (e *Environment) reachableNeighbors() []int {
	links := e.graph.LinkIndices(e.vehicle)
	out := make([]int, 0, len(links))
	for _, n := range links {
		if e.classes.Of(n) != Unreachable {
			out = append(out, n)
		}
	}
	return out
}

// filterVisited drops visited ways, reporting whether that left nothing
// out of a non empty input
func (e *Environment) filterVisited(ways []int) ([]int, bool) {
	visited := make(map[int]bool, len(e.visited))
	for _, v := range e.visited {
		visited[v] = true
	}
	out := make([]int, 0, len(ways))
	for _, w := range ways {
		if !visited[w] {
			out = append(out, w)
		}
	}
	return out, len(out) == 0 && len(ways) > 0
}

func (e *Environment) rewind(reachable []int) {
	isNeighbor := make(map[int]bool, len(reachable))
	for _, r := range reachable {
		isNeighbor[r] = true
	}
	for i, v := range e.visited {
		if isNeighbor[v] {
			e.visited = e.visited[:i+1]
			return
		}
	}
}

func (e *Environment) reclassify() {
	e.classes.classify(e.graph, e.state, e.trip, e.vehicle)
	e.offered = nil
}

func (e *Environment) observation() Observation {
	return Observation{
		VehiclePosition: e.graph.ID(e.vehicle),
		NetworkState:    e.state.Snapshot(),
	}
}

func (e *Environment) info() Info {
	return Info{
		StartStates:       e.classes.Members(e.graph, Start),
		TerminalStates:    e.classes.Members(e.graph, Terminal),
		DeviationStates:   e.classes.Members(e.graph, Deviation),
		UnreachableStates: e.classes.Members(e.graph, Unreachable),
		VisitedPath:       e.ids(e.visited),
	}
}

func (e *Environment) ids(indices []int) []network.WayID {
	out := make([]network.WayID, len(indices))
	for i, w := range indices {
		out[i] = e.graph.ID(w)
	}
	return out
}
