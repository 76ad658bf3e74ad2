package agent

import (
	"log"
	"net/http"
	"net/url"
	"time"
)

// Run drives the HTTP transport: every tick the agent reports its local view
// and then polls for pending commands. Both calls are node-initiated; the
// controller never pushes.
func Run(client *http.Client, controller, token string, src *ReportSource, interval time.Duration, journal *Journal, handle func(cmd string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		tick(client, controller, token, src, journal, handle)
		<-ticker.C
	}
}

func tick(client *http.Client, controller, token string, src *ReportSource, journal *Journal, handle func(cmd string)) {
	reportURL := controller + "/api/v1/report?nodeId=" + url.QueryEscape(src.NodeID)
	if err := postJSON(client, reportURL, token, src.Build()); err != nil {
		log.Printf("report failed: %v", err)
		return
	}
	cmds, err := fetchCommands(client, controller, token, src.NodeID)
	if err != nil {
		log.Printf("command poll failed: %v", err)
		return
	}
	deliver(src.NodeID, cmds, journal, handle)
}

func fetchCommands(client *http.Client, controller, token, nodeID string) ([]string, error) {
	var resp struct {
		Commands []string `json:"commands"`
	}
	u := controller + "/api/v1/commands?nodeId=" + url.QueryEscape(nodeID)
	if err := getJSON(client, u, token, &resp); err != nil {
		return nil, err
	}
	return resp.Commands, nil
}

// deliver hands each drained command to the handler and journals it. A drain
// is at-most-once, so everything received is recorded before handling.
func deliver(nodeID string, cmds []string, journal *Journal, handle func(cmd string)) {
	for _, cmd := range cmds {
		if journal != nil {
			if err := journal.Record(nodeID, cmd); err != nil {
				log.Printf("journal write failed: %v", err)
			}
		}
		if handle != nil {
			handle(cmd)
		} else {
			log.Printf("command received: %s", cmd)
		}
	}
}
