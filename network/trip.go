package network

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Trip is the planned ordered sequence of ways of a vehicle.
// Repeated ways are kept as they are.
type Trip struct {
	ID   string  `json:"id"`
	Ways []WayID `json:"ways"`
}

// NewTrip copies the way sequence into a new trip
func NewTrip(id string, ways []WayID) *Trip {
	w := make([]WayID, len(ways))
	copy(w, ways)
	return &Trip{ID: id, Ways: w}
}

// IndexOf returns the first position of the way on the trip or -1
func (t *Trip) IndexOf(way WayID) int {
	for i, w := range t.Ways {
		if w == way {
			return i
		}
	}
	return -1
}

// Contains reports whether the way is part of the trip
func (t *Trip) Contains(way WayID) bool {
	return t.IndexOf(way) >= 0
}

// Validate checks that every way of the trip exists in the graph
func (t *Trip) Validate(g *Graph) error {
	for i, w := range t.Ways {
		if !g.Has(w) {
			return fmt.Errorf("trip %s: way %d at position %d not in graph: %w", t.ID, w, i, ErrInvalidArgument)
		}
	}
	return nil
}

// LoadTripLines reads a trip file that holds one way id per line
func LoadTripLines(r io.Reader, id string) (*Trip, error) {
	trip := &Trip{ID: id, Ways: make([]WayID, 0)}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("trip %s line %d: %q: %w", id, line, text, ErrInvalidArgument)
		}
		trip.Ways = append(trip.Ways, WayID(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trip %s: %w", id, err)
	}
	return trip, nil
}

// LoadTripJSON reads a trip stored as {"id": ..., "ways": [...]}
func LoadTripJSON(r io.Reader) (*Trip, error) {
	trip := &Trip{}
	if err := json.NewDecoder(r).Decode(trip); err != nil {
		return nil, fmt.Errorf("decoding trip: %v: %w", err, ErrInvalidArgument)
	}
	if trip.Ways == nil {
		trip.Ways = make([]WayID, 0)
	}
	return trip, nil
}
