package agent

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReportSourceBuild(t *testing.T) {
	t.Run("payload carries id, ip, neighbors and a routing table", func(t *testing.T) {
		src := &ReportSource{NodeID: "A", VirtualIP: "10.0.0.1", Neighbors: []string{"B", "LOCAL"}}
		report := src.Build()

		if report["id"] != "A" || report["ip"] != "10.0.0.1" {
			t.Errorf("unexpected identity fields: %v", report)
		}
		neighbors, _ := report["neighbors"].([]string)
		if !reflect.DeepEqual(neighbors, []string{"B", "LOCAL"}) {
			t.Errorf("expected neighbors kept verbatim, got %v", neighbors)
		}
		routing, _ := report["routing_table"].(map[string]any)
		if _, ok := routing["B"]; !ok {
			t.Error("expected route entry for B")
		}
		if _, ok := routing["LOCAL"]; ok {
			t.Error("expected no route entry for the self marker")
		}
	})

	t.Run("neighbors file wins over the static list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "neighbors")
		content := "# managed by meshd\nB\n\nC\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		src := &ReportSource{NodeID: "A", Neighbors: []string{"stale"}, NeighborsFile: path}
		report := src.Build()
		neighbors, _ := report["neighbors"].([]string)
		if !reflect.DeepEqual(neighbors, []string{"B", "C"}) {
			t.Errorf("expected [B C] from file, got %v", neighbors)
		}
	})

	t.Run("unreadable file falls back to the static list", func(t *testing.T) {
		src := &ReportSource{NodeID: "A", Neighbors: []string{"B"}, NeighborsFile: "/nonexistent/neighbors"}
		report := src.Build()
		neighbors, _ := report["neighbors"].([]string)
		if !reflect.DeepEqual(neighbors, []string{"B"}) {
			t.Errorf("expected fallback [B], got %v", neighbors)
		}
	})
}

func TestSplitList(t *testing.T) {
	got := SplitList(" B, C ,,D ")
	if !reflect.DeepEqual(got, []string{"B", "C", "D"}) {
		t.Errorf("expected [B C D], got %v", got)
	}
	if out := SplitList(""); len(out) != 0 {
		t.Errorf("expected empty list, got %v", out)
	}
}
