package api

// QueueCommandRequest is sent by an operator to queue a command for one node
// or for every currently known node via the broadcast target.
type QueueCommandRequest struct {
	NodeID  string `json:"nodeId"`
	Command string `json:"command"`
}

// CommandsResponse carries the drained command batch for a polling node.
type CommandsResponse struct {
	NodeID   string   `json:"nodeId"`
	Commands []string `json:"commands"`
}

// ReportAck acknowledges a stored node report.
type ReportAck struct {
	NodeID  string `json:"nodeId"`
	Status  string `json:"status"`
	Pending int    `json:"pending"` // commands waiting for the node's next poll
}
