package network

import (
	"encoding/json"
	"fmt"
	"io"
)

// NodeID is an OSM node referenced by routes and deviations
type NodeID int64

// Stop is a named stop of a route placed on a node
type Stop struct {
	Name string `json:"name"`
	Node NodeID `json:"node"`
}

// Route is a pre-computed node sequence of a transit line with its stops
type Route struct {
	ID     string   `json:"id"`
	Length float64  `json:"length"`
	Stops  []Stop   `json:"stops"`
	Nodes  []NodeID `json:"nodes"`
}

// Deviation is a candidate detour, joining a route at its first node
// and leaving it again at its last node
type Deviation struct {
	Length float64  `json:"length"`
	Nodes  []NodeID `json:"nodes"`
}

// IndexOf returns the first index of the node on the route or -1
func (r *Route) IndexOf(n NodeID) int {
	return indexOf(r.Nodes, n)
}

// Contains reports whether the deviation passes the node
func (d *Deviation) Contains(n NodeID) bool {
	return indexOf(d.Nodes, n) >= 0
}

func indexOf(nodes []NodeID, n NodeID) int {
	for i, m := range nodes {
		if m == n {
			return i
		}
	}
	return -1
}

// LoadRouteJSON decodes a single route file
func LoadRouteJSON(r io.Reader) (*Route, error) {
	route := &Route{}
	if err := json.NewDecoder(r).Decode(route); err != nil {
		return nil, fmt.Errorf("decoding route: %v: %w", err, ErrInvalidArgument)
	}
	if len(route.Nodes) == 0 {
		return nil, fmt.Errorf("route %s has no nodes: %w", route.ID, ErrInvalidArgument)
	}
	return route, nil
}

// LoadDeviationJSON decodes a single deviation file
func LoadDeviationJSON(r io.Reader) (*Deviation, error) {
	dev := &Deviation{}
	if err := json.NewDecoder(r).Decode(dev); err != nil {
		return nil, fmt.Errorf("decoding deviation: %v: %w", err, ErrInvalidArgument)
	}
	if len(dev.Nodes) < 2 {
		return nil, fmt.Errorf("deviation needs at least two nodes, got %d: %w", len(dev.Nodes), ErrInvalidArgument)
	}
	return dev, nil
}
