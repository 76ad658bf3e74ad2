package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"meshview/pkg/agent"
	"meshview/pkg/consul"
	"meshview/pkg/version"
)

func main() {
	defaultID := os.Getenv("NODE_ID")
	defaultController := os.Getenv("CONTROLLER_ADDR")
	defaultToken := os.Getenv("AUTH_TOKEN")
	defaultConsul := os.Getenv("CONSUL_ADDR")

	nodeID := flag.String("id", defaultID, "node id (overrides NODE_ID env)")
	controller := flag.String("controller", defaultController, "controller base URL (or resolved via consul)")
	authToken := flag.String("token", defaultToken, "auth token matching controller --token (env AUTH_TOKEN)")
	consulAddr := flag.String("consul-addr", defaultConsul, "consul address for controller discovery (env CONSUL_ADDR)")
	interval := flag.Duration("interval", 2*time.Second, "report/poll interval")
	neighbors := flag.String("neighbors", "", "comma separated neighbor node ids")
	neighborsFile := flag.String("neighbors-file", "", "file with one neighbor id per line, reread each tick")
	virtualIP := flag.String("ip", "", "virtual address reported by this node")
	useWS := flag.Bool("ws", false, "use one websocket session instead of HTTP per tick")
	journalPath := flag.String("journal", "", "sqlite journal for delivered commands (e.g. /var/lib/meshview/commands.db)")
	showVersion := flag.Bool("v", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		log.Printf("agent version=%s", version.Build)
		return
	}
	if *nodeID == "" {
		log.Fatal("node id is required (flag --id or env NODE_ID)")
	}
	if *controller == "" && *consulAddr != "" {
		resolved, err := consul.Resolve(*consulAddr)
		if err != nil {
			log.Fatalf("controller discovery failed: %v", err)
		}
		*controller = resolved
		log.Printf("controller resolved via consul: %s", resolved)
	}
	if *controller == "" {
		log.Fatal("controller base URL is required (flag --controller, env CONTROLLER_ADDR, or --consul-addr)")
	}

	src := &agent.ReportSource{
		NodeID:        *nodeID,
		VirtualIP:     *virtualIP,
		Neighbors:     agent.SplitList(*neighbors),
		NeighborsFile: *neighborsFile,
	}

	var journal *agent.Journal
	if *journalPath != "" {
		j, err := agent.OpenJournal(*journalPath)
		if err != nil {
			log.Fatalf("journal open failed: %v", err)
		}
		defer j.Close()
		journal = j
	}

	handle := func(cmd string) {
		log.Printf("command received: %s", cmd)
	}

	log.Printf("agent version=%s id=%s controller=%s interval=%s ws=%v", version.Build, *nodeID, *controller, *interval, *useWS)
	if *useWS {
		agent.RunWS(*controller, *authToken, src, *interval, journal, handle)
		return
	}
	client := &http.Client{Timeout: 10 * time.Second}
	agent.Run(client, *controller, *authToken, src, *interval, journal, handle)
}
