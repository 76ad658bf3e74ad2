package agent

import (
	"bufio"
	"os"
	"strings"

	"meshview/pkg/topology"
)

// ReportSource describes where this node's local view comes from. Neighbors
// can be fixed (flags) or reread from a file each tick, so a mesh daemon can
// hand its live neighbor list to the agent without restarts.
type ReportSource struct {
	NodeID        string
	VirtualIP     string
	Neighbors     []string
	NeighborsFile string
}

// Build assembles the self-report payload in the shape the controller
// aggregates: routing_table, neighbors, ip, plus the node id.
func (s *ReportSource) Build() map[string]any {
	neighbors := s.currentNeighbors()
	routing := make(map[string]any, len(neighbors))
	for _, n := range neighbors {
		if n == topology.SelfMarker {
			continue
		}
		// direct neighbors are one hop away via themselves
		routing[n] = map[string]any{"next_hop": n, "hops": 1}
	}
	return map[string]any{
		"id":            s.NodeID,
		"ip":            s.VirtualIP,
		"neighbors":     neighbors,
		"routing_table": routing,
	}
}

func (s *ReportSource) currentNeighbors() []string {
	if s.NeighborsFile == "" {
		return s.Neighbors
	}
	f, err := os.Open(s.NeighborsFile)
	if err != nil {
		return s.Neighbors
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return s.Neighbors
	}
	return out
}

// SplitList parses a comma separated flag value into a trimmed list.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
