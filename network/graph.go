package network

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// WayID identifies a road segment, usually the OSM way id
type WayID int64

// Way is a directed road segment, the unit of position and action
type Way struct {
	ID       WayID
	Name     string
	Geometry orb.LineString
}

// Graph is the immutable way/link network.
// Every way gets a dense index in insertion order so that per-way state can be
// stored in plain slices.
type Graph struct {
	ways  []Way
	index map[WayID]int
	links [][]int
}

// NewGraph builds a graph from the ways and the ordered neighbor lists.
// Links that reference unknown ways and duplicate way ids are rejected.
func NewGraph(ways []Way, links map[WayID][]WayID) (*Graph, error) {
	g := &Graph{
		ways:  make([]Way, len(ways)),
		index: make(map[WayID]int, len(ways)),
		links: make([][]int, len(ways)),
	}
	for i, w := range ways {
		if _, ok := g.index[w.ID]; ok {
			return nil, fmt.Errorf("duplicate way %d: %w", w.ID, ErrInvalidArgument)
		}
		g.ways[i] = w
		g.index[w.ID] = i
		g.links[i] = make([]int, 0)
	}
	for from, tos := range links {
		fromIdx, ok := g.index[from]
		if !ok {
			return nil, fmt.Errorf("link from unknown way %d: %w", from, ErrInvalidArgument)
		}
		for _, to := range tos {
			toIdx, ok := g.index[to]
			if !ok {
				return nil, fmt.Errorf("link %d -> unknown way %d: %w", from, to, ErrInvalidArgument)
			}
			g.links[fromIdx] = append(g.links[fromIdx], toIdx)
		}
	}
	return g, nil
}

// Size returns the number of ways
func (g *Graph) Size() int {
	return len(g.ways)
}

// Has reports whether the way is part of the graph
func (g *Graph) Has(id WayID) bool {
	_, ok := g.index[id]
	return ok
}

// Index returns the dense index of the way
func (g *Graph) Index(id WayID) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// ID returns the way id stored at index i
func (g *Graph) ID(i int) WayID {
	return g.ways[i].ID
}

// Way returns the way stored at index i
func (g *Graph) Way(i int) Way {
	return g.ways[i]
}

// Ways returns a copy of all ways in index order
func (g *Graph) Ways() []Way {
	out := make([]Way, len(g.ways))
	copy(out, g.ways)
	return out
}

// Links returns the ordered neighbors reachable from the way.
// Unknown ways have no neighbors.
func (g *Graph) Links(id WayID) []WayID {
	i, ok := g.index[id]
	if !ok {
		return []WayID{}
	}
	out := make([]WayID, len(g.links[i]))
	for j, n := range g.links[i] {
		out[j] = g.ways[n].ID
	}
	return out
}

// LinkIndices returns the neighbor indices of the way at index i.
// The returned slice must not be modified.
func (g *Graph) LinkIndices(i int) []int {
	return g.links[i]
}

// MaxDegree is the largest number of neighbors of any way
func (g *Graph) MaxDegree() int {
	max := 0
	for _, l := range g.links {
		if len(l) > max {
			max = len(l)
		}
	}
	return max
}

// Length returns the geodesic length of the way geometry in meters,
// 0 when the way carries no geometry.
func (g *Graph) Length(id WayID) float64 {
	i, ok := g.index[id]
	if !ok || len(g.ways[i].Geometry) < 2 {
		return 0
	}
	return geo.Length(g.ways[i].Geometry)
}
