package topology

import (
	"reflect"
	"testing"
	"time"

	"meshview/pkg/model"
)

var refTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func rec(id string, age time.Duration, neighbors ...string) model.NodeRecord {
	return model.NodeRecord{
		ID:           id,
		LastSeen:     refTime.Add(-age),
		RoutingTable: map[string]any{},
		Neighbors:    neighbors,
	}
}

func findNode(g model.Graph, id string) (model.GraphNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return model.GraphNode{}, false
}

func TestBuildGhostNodes(t *testing.T) {
	t.Run("unreported neighbor becomes a single ghost with a directed link", func(t *testing.T) {
		records := map[string]model.NodeRecord{
			"A": rec("A", time.Second, "B"),
		}
		g := Build(records, refTime, DefaultActiveWindow)

		if len(g.Nodes) != 2 {
			t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
		}
		ghost, ok := findNode(g, "B")
		if !ok {
			t.Fatal("expected ghost node B")
		}
		if ghost.Name != "B (?)" {
			t.Errorf("expected ghost label %q, got %q", "B (?)", ghost.Name)
		}
		if ghost.Color != colorGhost {
			t.Errorf("expected ghost color %s, got %s", colorGhost, ghost.Color)
		}
		if len(g.Links) != 1 || g.Links[0].Source != "A" || g.Links[0].Target != "B" {
			t.Errorf("expected one link A->B, got %v", g.Links)
		}
	})

	t.Run("same unknown neighbor from two reporters yields one ghost", func(t *testing.T) {
		records := map[string]model.NodeRecord{
			"A": rec("A", time.Second, "C"),
			"B": rec("B", time.Second, "C"),
		}
		g := Build(records, refTime, DefaultActiveWindow)

		ghosts := 0
		for _, n := range g.Nodes {
			if n.ID == "C" {
				ghosts++
			}
		}
		if ghosts != 1 {
			t.Errorf("expected exactly one ghost for C, got %d", ghosts)
		}
		if len(g.Links) != 2 {
			t.Errorf("expected two links to C, got %v", g.Links)
		}
	})

	t.Run("ghosts are not persisted between builds", func(t *testing.T) {
		records := map[string]model.NodeRecord{
			"A": rec("A", time.Second, "B"),
		}
		_ = Build(records, refTime, DefaultActiveWindow)
		records["A"] = rec("A", time.Second) // neighbor gone
		g := Build(records, refTime, DefaultActiveWindow)
		if _, ok := findNode(g, "B"); ok {
			t.Error("expected ghost B to disappear once unreferenced")
		}
	})
}

func TestBuildSelfMarker(t *testing.T) {
	records := map[string]model.NodeRecord{
		"A": rec("A", time.Second, SelfMarker, "B"),
	}
	g := Build(records, refTime, DefaultActiveWindow)

	if _, ok := findNode(g, SelfMarker); ok {
		t.Error("expected no ghost for the self marker")
	}
	for _, l := range g.Links {
		if l.Target == SelfMarker {
			t.Errorf("expected no link to self marker, got %v", l)
		}
	}
	if len(g.Links) != 1 {
		t.Errorf("expected one link A->B, got %v", g.Links)
	}
}

func TestBuildActivityBoundary(t *testing.T) {
	records := map[string]model.NodeRecord{
		"fresh": rec("fresh", 4900*time.Millisecond),
		"stale": rec("stale", 5100*time.Millisecond),
	}
	g := Build(records, refTime, DefaultActiveWindow)

	fresh, _ := findNode(g, "fresh")
	if fresh.Color != colorActive || fresh.Val != weightActive {
		t.Errorf("expected fresh active (%s/%d), got %s/%d", colorActive, weightActive, fresh.Color, fresh.Val)
	}
	stale, _ := findNode(g, "stale")
	if stale.Color != colorInactive || stale.Val != weightDim {
		t.Errorf("expected stale inactive (%s/%d), got %s/%d", colorInactive, weightDim, stale.Color, stale.Val)
	}
}

func TestBuildDirectedLinks(t *testing.T) {
	// mutual neighbors produce two links, one per direction
	records := map[string]model.NodeRecord{
		"A": rec("A", time.Second, "B"),
		"B": rec("B", time.Second, "A"),
	}
	g := Build(records, refTime, DefaultActiveWindow)

	if len(g.Links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(g.Links))
	}
	if g.Links[0].Source != "A" || g.Links[0].Target != "B" {
		t.Errorf("expected A->B first, got %v", g.Links[0])
	}
	if g.Links[1].Source != "B" || g.Links[1].Target != "A" {
		t.Errorf("expected B->A second, got %v", g.Links[1])
	}
}

func TestBuildDeterminism(t *testing.T) {
	records := map[string]model.NodeRecord{
		"C": rec("C", time.Second, "A", "ghost-1"),
		"A": rec("A", 10*time.Second, "B", "ghost-1", "ghost-2"),
		"B": rec("B", time.Second, SelfMarker),
	}
	first := Build(records, refTime, DefaultActiveWindow)
	second := Build(records, refTime, DefaultActiveWindow)
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical graphs for identical snapshots")
	}
}

func TestBuildEmptySnapshot(t *testing.T) {
	g := Build(map[string]model.NodeRecord{}, refTime, 0)
	if g.Nodes == nil || len(g.Nodes) != 0 {
		t.Errorf("expected empty node list, got %v", g.Nodes)
	}
	if g.Links == nil || len(g.Links) != 0 {
		t.Errorf("expected empty link list, got %v", g.Links)
	}
}
