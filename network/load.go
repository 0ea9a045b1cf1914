package network

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

type graphFile struct {
	Ways []struct {
		ID   WayID  `json:"id"`
		Name string `json:"name"`
	} `json:"ways"`
	Links map[string][]WayID `json:"links"`
}

// LoadGraphJSON reads a pre-built way/link network of the form
//
//	{"ways": [{"id": 1, "name": "..."}], "links": {"1": [2, 3]}}
func LoadGraphJSON(r io.Reader) (*Graph, error) {
	f := graphFile{}
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding graph: %v: %w", err, ErrInvalidArgument)
	}
	ways := make([]Way, len(f.Ways))
	for i, w := range f.Ways {
		ways[i] = Way{ID: w.ID, Name: w.Name}
	}
	links := make(map[WayID][]WayID, len(f.Links))
	for k, v := range f.Links {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("graph link key %q: %w", k, ErrInvalidArgument)
		}
		links[WayID(id)] = v
	}
	return NewGraph(ways, links)
}
