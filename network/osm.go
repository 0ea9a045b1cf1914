package network

import (
	"context"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

type osmWay struct {
	id      WayID
	name    string
	oneway  bool
	nodeIDs []osm.NodeID
}

// ReadOSM builds a way graph out of an OSM PBF extract.
// Only ways that reference at least one node are kept. Two ways are linked
// when they share a node; a oneway cannot be left at its first node nor
// entered at its last node.
func ReadOSM(ctx context.Context, r io.Reader, procs int) (*Graph, error) {
	if procs < 1 {
		procs = 1
	}
	scanner := osmpbf.New(ctx, r, procs)
	defer scanner.Close()
	scanner.SkipRelations = true

	points := make(map[osm.NodeID]orb.Point)
	ways := make([]*osmWay, 0)

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			points[o.ID] = o.Point()
		case *osm.Way:
			if len(o.Nodes) == 0 {
				continue
			}
			w := &osmWay{
				id:      WayID(o.ID),
				name:    o.Tags.Find("name"),
				oneway:  o.Tags.Find("oneway") == "yes",
				nodeIDs: o.Nodes.NodeIDs(),
			}
			ways = append(ways, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning osm data: %w", err)
	}
	return buildOSMGraph(ways, points)
}

func buildOSMGraph(ways []*osmWay, points map[osm.NodeID]orb.Point) (*Graph, error) {
	// intersections: node -> ways passing it, in scan order
	byNode := make(map[osm.NodeID][]int)
	for i, w := range ways {
		for _, n := range w.nodeIDs {
			byNode[n] = append(byNode[n], i)
		}
	}

	out := make([]Way, len(ways))
	links := make(map[WayID][]WayID)
	for i, w := range ways {
		line := make(orb.LineString, 0, len(w.nodeIDs))
		for _, n := range w.nodeIDs {
			if p, ok := points[n]; ok {
				line = append(line, p)
			}
		}
		out[i] = Way{ID: w.id, Name: w.name, Geometry: line}

		seen := make(map[int]bool)
		for _, n := range w.nodeIDs {
			others := byNode[n]
			if len(others) < 2 {
				continue
			}
			for _, j := range others {
				if j == i || seen[j] {
					continue
				}
				if !canLeave(w, n) || !canEnter(ways[j], n) {
					continue
				}
				seen[j] = true
				links[w.id] = append(links[w.id], ways[j].id)
			}
		}
	}
	return NewGraph(out, links)
}

func canLeave(w *osmWay, n osm.NodeID) bool {
	return !w.oneway || w.nodeIDs[0] != n
}

func canEnter(w *osmWay, n osm.NodeID) bool {
	return !w.oneway || w.nodeIDs[len(w.nodeIDs)-1] != n
}
