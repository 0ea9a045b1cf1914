package deviation

import (
	"fmt"

	"github.com/zeu5/osm-deviation-rl/network"
	"github.com/zeu5/osm-deviation-rl/types"
	"golang.org/x/exp/rand"
)

// Weights balance served stops against detour length in the deviation reward
type Weights struct {
	Length float64 `yaml:"length" json:"length"`
	Stops  float64 `yaml:"stops" json:"stops"`
}

// DefaultWeights favor serving stops twice as much as a short detour
func DefaultWeights() Weights {
	return Weights{Length: 2, Stops: 4}
}

// RouteSet is a transit route with the detours that can replace part of it
type RouteSet struct {
	Route      *network.Route
	Deviations []*network.Deviation
}

// RouteEnvironment decides once per episode whether a route is kept or which
// detour is taken given a blocked node. The state is (route, choice, scenario)
// where choice 0 means undecided and choice a+1 means action a was taken.
// Action 0 keeps the route, action d+1 takes deviation d.
type RouteEnvironment struct {
	routes    []RouteSet
	scenarios []network.NodeID
	weights   Weights
	rand      *rand.Rand

	route    int
	scenario int
	done     bool
}

var _ types.Environment = &RouteEnvironment{}

func NewRouteEnvironment(routes []RouteSet, scenarios []network.NodeID, weights Weights, seed uint64) (*RouteEnvironment, error) {
	if len(routes) == 0 || len(scenarios) == 0 {
		return nil, fmt.Errorf("route environment needs routes and scenarios: %w", ErrInvalidArgument)
	}
	for i, r := range routes {
		if r.Route == nil || len(r.Route.Nodes) == 0 {
			return nil, fmt.Errorf("route %d has no nodes: %w", i, ErrInvalidArgument)
		}
		for j, d := range r.Deviations {
			if d == nil || len(d.Nodes) < 2 {
				return nil, fmt.Errorf("route %s deviation %d needs at least two nodes: %w", r.Route.ID, j, ErrInvalidArgument)
			}
		}
	}
	if weights.Length+weights.Stops == 0 {
		return nil, fmt.Errorf("reward weights sum to zero: %w", ErrInvalidArgument)
	}
	return &RouteEnvironment{
		routes:    routes,
		scenarios: scenarios,
		weights:   weights,
		rand:      rand.New(rand.NewSource(seed)),
	}, nil
}

// ActionSpace is one more than the largest number of deviations of a route
func (e *RouteEnvironment) ActionSpace() int {
	max := 0
	for _, r := range e.routes {
		if len(r.Deviations) > max {
			max = len(r.Deviations)
		}
	}
	return max + 1
}

// Rand returns the generator owned by the environment
func (e *RouteEnvironment) Rand() *rand.Rand {
	return e.rand
}

// Routes returns the routes in state key order
func (e *RouteEnvironment) Routes() []RouteSet {
	return e.routes
}

// Scenarios returns the blocked nodes in state key order
func (e *RouteEnvironment) Scenarios() []network.NodeID {
	return e.scenarios
}

// Reset draws a route and a scenario
func (e *RouteEnvironment) Reset() (types.StateKey, error) {
	e.route = e.rand.Intn(len(e.routes))
	e.scenario = e.rand.Intn(len(e.scenarios))
	e.done = false
	return types.Key(int64(e.route), 0, int64(e.scenario)), nil
}

// Step takes the decision, every episode ends after it
func (e *RouteEnvironment) Step(action int) (types.StateKey, float64, bool, error) {
	if e.done {
		return types.StateKey{}, 0, false, fmt.Errorf("decision already taken: %w", ErrInvalidArgument)
	}
	if action < 0 || action > len(e.routes[e.route].Deviations) {
		return types.StateKey{}, 0, false, fmt.Errorf("action %d for route %d: %w", action, e.route, ErrInvalidArgument)
	}
	e.done = true
	reward := e.Reward(e.route, e.scenario, action)
	return types.Key(int64(e.route), int64(action+1), int64(e.scenario)), reward, true, nil
}

func (e *RouteEnvironment) ValidActions() []int {
	if e.done {
		return []int{}
	}
	return types.AllActions(len(e.routes[e.route].Deviations) + 1)
}

// Reward of an action for the route and scenario indices
func (e *RouteEnvironment) Reward(route, scenario, action int) float64 {
	set := e.routes[route]
	blocked := e.scenarios[scenario]
	b := set.Route.IndexOf(blocked)

	if action == 0 {
		if b < 0 {
			return 1
		}
		return -1
	}
	if b < 0 {
		return -1
	}
	dev := set.Deviations[action-1]
	first := set.Route.IndexOf(dev.Nodes[0])
	last := set.Route.IndexOf(dev.Nodes[len(dev.Nodes)-1])
	if first < 0 || last < 0 || first >= b || last <= b || dev.Contains(blocked) {
		return -1
	}

	skipped, served := 0, 0
	for _, stop := range set.Route.Stops {
		i := set.Route.IndexOf(stop.Node)
		if i <= first || i >= last {
			continue
		}
		skipped++
		if dev.Contains(stop.Node) {
			served++
		}
	}
	ratio := 1.0
	if skipped > 0 {
		ratio = float64(served) / float64(skipped)
	}
	length := 0.0
	if set.Route.Length > 0 {
		length = dev.Length / set.Route.Length
	}
	return (e.weights.Stops*ratio - e.weights.Length*length) / (e.weights.Stops + e.weights.Length)
}

// Choice is the learned decision for a route under a scenario
type Choice struct {
	Route    string         `json:"route"`
	Scenario network.NodeID `json:"scenario"`
	Action   int            `json:"action"`
}

// BestChoices lists the greedy action of every undecided state in the table,
// only considering the actions the route of the state has
func (e *RouteEnvironment) BestChoices(table *types.QTable) []Choice {
	out := make([]Choice, 0)
	for _, k := range table.Keys() {
		if k.Len() != 3 || k.Part(1) != 0 {
			continue
		}
		r, s := int(k.Part(0)), int(k.Part(2))
		if r < 0 || r >= len(e.routes) || s < 0 || s >= len(e.scenarios) {
			continue
		}
		row, _ := table.Row(k)
		// rows are as wide as the route with the most deviations
		actions := types.AllActions(len(e.routes[r].Deviations) + 1)
		out = append(out, Choice{
			Route:    e.routes[r].Route.ID,
			Scenario: e.scenarios[s],
			Action:   types.Greedy(row, actions),
		})
	}
	return out
}
