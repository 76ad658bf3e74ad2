package model

import "time"

// NodeRecord captures the latest self-report from one mesh node.
// It is replaced wholesale on every report; fields are never merged.
type NodeRecord struct {
	ID           string         `json:"id"`
	LastSeen     time.Time      `json:"lastSeen"`
	RoutingTable map[string]any `json:"routingTable"` // opaque, passed through verbatim
	Neighbors    []string       `json:"neighbors"`
	VirtualIP    string         `json:"virtualIp,omitempty"`
	Details      map[string]any `json:"details"` // full original payload
}

// NodeSummary is the listing view of a record.
type NodeSummary struct {
	ID        string    `json:"id"`
	VirtualIP string    `json:"virtualIp,omitempty"`
	LastSeen  time.Time `json:"lastSeen"`
	Active    bool      `json:"active"`
	Neighbors int       `json:"neighbors"`
	Pending   int       `json:"pending"` // queued commands not yet polled
}
