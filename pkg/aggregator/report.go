package aggregator

import (
	"time"

	"meshview/pkg/model"
)

// recordFromReport builds a fresh NodeRecord from an arbitrary report
// payload. Field extraction is best-effort: anything missing or of the wrong
// shape becomes an empty container. The full payload is retained verbatim for
// detail lookups.
func recordFromReport(nodeID string, report map[string]any, now time.Time) model.NodeRecord {
	if report == nil {
		report = map[string]any{}
	}
	rec := model.NodeRecord{
		ID:           nodeID,
		LastSeen:     now,
		RoutingTable: map[string]any{},
		Neighbors:    []string{},
		Details:      report,
	}
	if rt, ok := report["routing_table"].(map[string]any); ok {
		rec.RoutingTable = rt
	}
	rec.Neighbors = stringList(report["neighbors"])
	if ip, ok := report["ip"].(string); ok {
		rec.VirtualIP = ip
	}
	return rec
}

// stringList coerces a decoded JSON array into []string, skipping entries of
// any other type.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
