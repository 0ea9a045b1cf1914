package deviation

import "github.com/zeu5/osm-deviation-rl/network"

// Class is the role of a way relative to the active trip and disruption
type Class uint8

const (
	Terminal Class = iota
	Start
	Deviation
	Unreachable
)

func (c Class) String() string {
	switch c {
	case Start:
		return "start"
	case Deviation:
		return "deviation"
	case Unreachable:
		return "unreachable"
	default:
		return "terminal"
	}
}

// Classification assigns exactly one class to every way of the graph.
// Being array backed, no way can be unclassified or classified twice.
type Classification struct {
	classes []Class
	// first and last trip index of a blocked way, -1 when nothing is blocked
	first int
	last  int
}

func newClassification(size int) *Classification {
	return &Classification{
		classes: make([]Class, size),
		first:   -1,
		last:    -1,
	}
}

// Of returns the class of the way at index i
func (c *Classification) Of(i int) Class {
	return c.classes[i]
}

// Disrupted reports whether a blocked span exists on the trip
func (c *Classification) Disrupted() bool {
	return c.first >= 0
}

// Span returns the trip indices of the first and last blocked way
func (c *Classification) Span() (int, int) {
	return c.first, c.last
}

// Members returns the ids of all ways of the given class in index order
func (c *Classification) Members(g *network.Graph, class Class) []network.WayID {
	out := make([]network.WayID, 0)
	for i, cl := range c.classes {
		if cl == class {
			out = append(out, g.ID(i))
		}
	}
	return out
}

// Count returns how many ways carry the class
func (c *Classification) Count(class Class) int {
	count := 0
	for _, cl := range c.classes {
		if cl == class {
			count++
		}
	}
	return count
}

// classify recomputes the classes for the trip given the network state and
// the vehicle position (way index).
//
// With no trip or no blocked trip way every way is terminal. Otherwise, with
// pos the trip index of the vehicle (0 when it is off trip), a trip way with
// index i is unreachable when i < pos, start when i < first, deviation when
// i <= last and terminal after that. Ways off the trip form the detour region
// and are deviation ways.
func (c *Classification) classify(g *network.Graph, state *network.NetworkState, trip *network.Trip, vehicle int) {
	c.first, c.last = -1, -1
	for i := range c.classes {
		c.classes[i] = Terminal
	}
	if trip == nil {
		return
	}

	// first occurrence of each way on the trip
	tripIndex := make([]int, len(c.classes))
	for i := range tripIndex {
		tripIndex[i] = -1
	}
	for i, w := range trip.Ways {
		wi, ok := g.Index(w)
		if !ok || tripIndex[wi] >= 0 {
			continue
		}
		tripIndex[wi] = i
	}

	for _, w := range trip.Ways {
		wi, ok := g.Index(w)
		if !ok || state.Usable(wi) {
			continue
		}
		idx := tripIndex[wi]
		if c.first < 0 {
			c.first = idx
		}
		if idx > c.last {
			c.last = idx
		}
	}
	if c.first < 0 {
		return
	}

	pos := 0
	if vehicle >= 0 && tripIndex[vehicle] >= 0 {
		pos = tripIndex[vehicle]
	}

	for wi, idx := range tripIndex {
		switch {
		case idx < 0:
			c.classes[wi] = Deviation
		case idx < pos:
			c.classes[wi] = Unreachable
		case idx < c.first:
			c.classes[wi] = Start
		case idx <= c.last:
			c.classes[wi] = Deviation
		default:
			c.classes[wi] = Terminal
		}
	}
}
