package topology

import (
	"fmt"
	"sort"
	"time"

	"meshview/pkg/model"
)

// SelfMarker is the reserved neighbor identifier a node uses to reference
// itself. It never produces a ghost node or a link.
const SelfMarker = "LOCAL"

// DefaultActiveWindow is the age threshold separating active from stale
// nodes. Tunable, not a hard contract.
const DefaultActiveWindow = 5 * time.Second

const (
	colorActive   = "#4CAF50"
	colorInactive = "#9E9E9E"
	colorGhost    = "#FFC107"
	colorLink     = "#FFF"

	weightActive = 10
	weightDim    = 5
)

// Build derives the force-graph view from a store snapshot. It is a pure
// function: the snapshot is not mutated and an identical snapshot rebuilds
// identical content. All nodes are classified against the single reference
// time now, captured once by the caller.
//
// A neighbor identifier with no record of its own (and not the SelfMarker)
// yields exactly one ghost node per build, tagged with the unknown/offline
// color. Links are directed; mutual neighbors yield two links.
func Build(records map[string]model.NodeRecord, now time.Time, activeWindow time.Duration) model.Graph {
	if activeWindow <= 0 {
		activeWindow = DefaultActiveWindow
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	graph := model.Graph{
		Nodes: make([]model.GraphNode, 0, len(records)),
		Links: []model.GraphLink{},
	}
	ghosts := make(map[string]bool)

	for _, id := range ids {
		rec := records[id]
		active := now.Sub(rec.LastSeen) < activeWindow
		node := model.GraphNode{ID: id, Name: id, Val: weightDim, Color: colorInactive}
		if active {
			node.Val = weightActive
			node.Color = colorActive
		}
		graph.Nodes = append(graph.Nodes, node)

		for _, neighbor := range rec.Neighbors {
			if neighbor == SelfMarker {
				continue
			}
			if _, known := records[neighbor]; !known && !ghosts[neighbor] {
				ghosts[neighbor] = true
				graph.Nodes = append(graph.Nodes, model.GraphNode{
					ID:    neighbor,
					Name:  fmt.Sprintf("%s (?)", neighbor),
					Val:   weightDim,
					Color: colorGhost,
				})
			}
			graph.Links = append(graph.Links, model.GraphLink{
				Source: id,
				Target: neighbor,
				Color:  colorLink,
			})
		}
	}
	return graph
}
