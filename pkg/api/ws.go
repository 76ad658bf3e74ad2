package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"meshview/pkg/aggregator"
)

// WSMessage is the envelope for agent<->controller messages. Agents send
// "report" and "poll"; the controller answers a poll with "commands".
// Delivery stays node-initiated: the socket replaces repeated HTTP dials,
// not the pull model.
type WSMessage struct {
	Type    string      `json:"type"`
	NodeID  string      `json:"nodeId,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// WSHub maintains agent connections keyed by node ID.
type WSHub struct {
	upgrader websocket.Upgrader
	agg      *aggregator.Aggregator
	mu       sync.Mutex
	agents   map[string]*websocket.Conn
}

func NewWSHub(agg *aggregator.Aggregator) *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		agg:    agg,
		agents: map[string]*websocket.Conn{},
	}
}

// HandleAgentWS upgrades and stores the connection for a node; expects ?nodeId=xxx
func (h *WSHub) HandleAgentWS(w http.ResponseWriter, r *http.Request) {
	nodeID := r.URL.Query().Get("nodeId")
	if nodeID == "" {
		http.Error(w, "nodeId required", http.StatusBadRequest)
		return
	}
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed node=%s err=%v", nodeID, err)
		return
	}
	h.mu.Lock()
	if old, ok := h.agents[nodeID]; ok {
		_ = old.Close()
	}
	h.agents[nodeID] = c
	h.mu.Unlock()
	log.Printf("agent ws connected: %s", nodeID)
	go h.readLoop(nodeID, c)
}

func (h *WSHub) readLoop(nodeID string, c *websocket.Conn) {
	defer func() {
		c.Close()
		h.mu.Lock()
		delete(h.agents, nodeID)
		h.mu.Unlock()
		log.Printf("agent ws disconnected: %s", nodeID)
	}()
	for {
		var msg WSMessage
		if err := c.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "report":
			report, _ := msg.Payload.(map[string]interface{})
			h.agg.UpdateNode(nodeID, report)
		case "poll":
			cmds := h.agg.GetCommands(nodeID)
			resp := WSMessage{Type: "commands", NodeID: nodeID, Payload: cmds}
			if err := c.WriteJSON(resp); err != nil {
				log.Printf("ws send to %s failed: %v", nodeID, err)
				return
			}
		default:
			log.Printf("ws recv from %s unknown type=%s", nodeID, msg.Type)
		}
	}
}
