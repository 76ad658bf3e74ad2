package aggregator

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"meshview/pkg/model"
	"meshview/pkg/topology"
)

// Broadcast is the reserved command target meaning every node currently
// known to the store. Nodes first seen after the enqueue do not receive it.
const Broadcast = "BROADCAST"

const auditCap = 500

// Aggregator holds the shared network view: the latest record per node and
// the pending command queue per node. Every public operation is individually
// atomic behind one lock; no cross-operation atomicity is promised.
type Aggregator struct {
	mu      sync.RWMutex
	nodes   map[string]model.NodeRecord
	pending map[string][]string
	audit   []model.AuditEntry

	window time.Duration
	now    func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithActiveWindow overrides the activity age threshold (default 5s).
func WithActiveWindow(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.window = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(fn func() time.Time) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.now = fn
		}
	}
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		nodes:   make(map[string]model.NodeRecord),
		pending: make(map[string][]string),
		window:  topology.DefaultActiveWindow,
		now:     time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// UpdateNode stores a fresh record for nodeID built from the report payload.
// The previous record, if any, is replaced wholesale. Missing or malformed
// fields default to empty containers; the call never fails. An empty command
// queue is created for first-time nodes.
func (a *Aggregator) UpdateNode(nodeID string, report map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, known := a.nodes[nodeID]
	a.nodes[nodeID] = recordFromReport(nodeID, report, a.now())
	if _, ok := a.pending[nodeID]; !ok {
		a.pending[nodeID] = []string{}
	}
	if !known {
		a.appendAuditLocked(model.AuditEntry{
			Actor:  nodeID,
			Action: "first_report",
			Target: "self",
		})
	}
}

// GetCommands drains and returns the pending commands for nodeID in enqueue
// order. A second immediate call returns an empty slice. Unknown nodes get an
// empty slice, never an error.
func (a *Aggregator) GetCommands(nodeID string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	cmds := a.pending[nodeID]
	a.pending[nodeID] = []string{}
	if cmds == nil {
		cmds = []string{}
	}
	return cmds
}

// QueueCommand appends command for later delivery. Target Broadcast fans out
// to every node currently present in the store; membership is captured
// atomically with the enqueue. Queuing to a node that has never reported is
// permitted and creates its queue ahead of first contact.
func (a *Aggregator) QueueCommand(target, command string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if target == Broadcast {
		for id := range a.nodes {
			a.pending[id] = append(a.pending[id], command)
		}
	} else {
		a.pending[target] = append(a.pending[target], command)
	}
	a.appendAuditLocked(model.AuditEntry{
		Actor:  "operator",
		Action: "queue_command",
		Target: target,
		Detail: command,
	})
}

// Topology derives the rendering-ready graph from a consistent point-in-time
// snapshot of the store. Ghost nodes are synthesized fresh on every call and
// never persisted.
func (a *Aggregator) Topology() model.Graph {
	a.mu.RLock()
	records := a.snapshotLocked()
	now := a.now()
	a.mu.RUnlock()
	return topology.Build(records, now, a.window)
}

// NodeDetails returns the last raw report payload for nodeID, or an empty
// map if the node has never reported.
func (a *Aggregator) NodeDetails(nodeID string) map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rec, ok := a.nodes[nodeID]
	if !ok {
		return map[string]any{}
	}
	out := make(map[string]any, len(rec.Details))
	for k, v := range rec.Details {
		out[k] = v
	}
	return out
}

// ListNodes returns a summary of every known node, sorted by ID.
func (a *Aggregator) ListNodes() []model.NodeSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	now := a.now()
	out := make([]model.NodeSummary, 0, len(a.nodes))
	for id, rec := range a.nodes {
		out = append(out, model.NodeSummary{
			ID:        id,
			VirtualIP: rec.VirtualIP,
			LastSeen:  rec.LastSeen,
			Active:    now.Sub(rec.LastSeen) < a.window,
			Neighbors: len(rec.Neighbors),
			Pending:   len(a.pending[id]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot returns a point-in-time copy of all records. Stored payloads are
// treated as immutable once stored, so record values can share them.
func (a *Aggregator) Snapshot() map[string]model.NodeRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() map[string]model.NodeRecord {
	out := make(map[string]model.NodeRecord, len(a.nodes))
	for id, rec := range a.nodes {
		out[id] = rec
	}
	return out
}

// ListAudit returns up to limit most recent audit entries, oldest first.
func (a *Aggregator) ListAudit(limit int) []model.AuditEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if limit <= 0 || limit > len(a.audit) {
		limit = len(a.audit)
	}
	out := make([]model.AuditEntry, 0, limit)
	for i := len(a.audit) - limit; i < len(a.audit); i++ {
		out = append(out, a.audit[i])
	}
	return out
}

// AppendAudit records an entry from outside the core operations (auth events
// and the like).
func (a *Aggregator) AppendAudit(entry model.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.appendAuditLocked(entry)
}

func (a *Aggregator) appendAuditLocked(entry model.AuditEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = a.now()
	}
	a.audit = append(a.audit, entry)
	if len(a.audit) > auditCap {
		a.audit = a.audit[len(a.audit)-auditCap:]
	}
}
