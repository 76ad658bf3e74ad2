package agent

import (
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// WSMessage mirrors the controller-side envelope.
type WSMessage struct {
	Type    string      `json:"type"`
	NodeID  string      `json:"nodeId,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// RunWS drives the websocket transport: one long-lived connection over which
// the agent sends a report then a poll each tick and reads the drained
// command batch back. Reconnects with a flat backoff on any failure.
func RunWS(controller, token string, src *ReportSource, interval time.Duration, journal *Journal, handle func(cmd string)) {
	endpoint, err := wsEndpoint(controller, src.NodeID)
	if err != nil {
		log.Fatalf("bad controller url: %v", err)
	}
	for {
		if err := wsSession(endpoint, token, src, interval, journal, handle); err != nil {
			log.Printf("ws session ended: %v", err)
		}
		time.Sleep(3 * time.Second)
	}
}

func wsEndpoint(controller, nodeID string) (string, error) {
	u, err := url.Parse(controller)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/v1/ws/agent"
	q := u.Query()
	q.Set("nodeId", nodeID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func wsSession(endpoint, token string, src *ReportSource, interval time.Duration, journal *Journal, handle func(cmd string)) error {
	header := map[string][]string{}
	if token != "" {
		header["Authorization"] = []string{"Bearer " + token}
	}
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, header)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("ws connected: %s", endpoint)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := conn.WriteJSON(WSMessage{Type: "report", NodeID: src.NodeID, Payload: src.Build()}); err != nil {
			return err
		}
		if err := conn.WriteJSON(WSMessage{Type: "poll", NodeID: src.NodeID}); err != nil {
			return err
		}
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		if msg.Type == "commands" {
			deliver(src.NodeID, stringPayload(msg.Payload), journal, handle)
		}
		<-ticker.C
	}
}

func stringPayload(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
