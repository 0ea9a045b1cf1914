package network

import "fmt"

// Selector addresses a single way either by its id or by its dense index
type Selector interface {
	resolve(g *Graph) (int, error)
}

// ByWay selects a way by id
type ByWay WayID

// ByIndex selects a way by its dense index in the graph
type ByIndex int

func (b ByWay) resolve(g *Graph) (int, error) {
	i, ok := g.index[WayID(b)]
	if !ok {
		return -1, fmt.Errorf("unknown way %d: %w", int64(b), ErrInvalidArgument)
	}
	return i, nil
}

func (b ByIndex) resolve(g *Graph) (int, error) {
	if int(b) < 0 || int(b) >= len(g.ways) {
		return -1, fmt.Errorf("way index %d out of range [0, %d): %w", int(b), len(g.ways), ErrInvalidArgument)
	}
	return int(b), nil
}

// Resolve returns the dense index addressed by the selector
func (g *Graph) Resolve(sel Selector) (int, error) {
	if sel == nil {
		return -1, fmt.Errorf("nil selector: %w", ErrInvalidArgument)
	}
	return sel.resolve(g)
}

// NetworkState holds the usability of every way, indexed like the graph
type NetworkState struct {
	usable []bool
}

// NewNetworkState returns a state where all ways are usable
func NewNetworkState(size int) *NetworkState {
	s := &NetworkState{usable: make([]bool, size)}
	s.Clear()
	return s
}

// Usable reports whether the way at index i can be driven on
func (s *NetworkState) Usable(i int) bool {
	return s.usable[i]
}

// Set updates the usability of the way at index i
func (s *NetworkState) Set(i int, usable bool) {
	s.usable[i] = usable
}

// Clear marks every way usable again
func (s *NetworkState) Clear() {
	for i := range s.usable {
		s.usable[i] = true
	}
}

// Blocked returns the number of unusable ways
func (s *NetworkState) Blocked() int {
	count := 0
	for _, u := range s.usable {
		if !u {
			count++
		}
	}
	return count
}

// Snapshot copies the usability vector
func (s *NetworkState) Snapshot() []bool {
	out := make([]bool, len(s.usable))
	copy(out, s.usable)
	return out
}
