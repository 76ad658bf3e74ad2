package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"meshview/pkg/aggregator"
	"meshview/pkg/version"
)

// maxReportBytes caps a single report body. The aggregator itself accepts
// whatever the transport admits.
const maxReportBytes = 1 << 20

// RegisterRoutes wires the HTTP handlers on the provided mux. token guards
// node-facing endpoints (optional shared bootstrap token); requireJWT switches
// operator endpoints to JWT bearer auth when the user DB is enabled.
func RegisterRoutes(mux *http.ServeMux, agg *aggregator.Aggregator, token string, requireJWT bool) {
	nodeAuth := authFunc(token)
	operAuth := nodeAuth
	if requireJWT {
		operAuth = authFuncJWT
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("meshview controller"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": version.Build})
	})

	mux.HandleFunc("/api/v1/report", func(w http.ResponseWriter, r *http.Request) {
		if !nodeAuth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxReportBytes)
		var report map[string]any
		if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		nodeID := r.URL.Query().Get("nodeId")
		if nodeID == "" {
			if id, ok := report["id"].(string); ok {
				nodeID = id
			}
		}
		if nodeID == "" {
			http.Error(w, "node id is required", http.StatusBadRequest)
			return
		}
		agg.UpdateNode(nodeID, report)
		pending := 0
		for _, s := range agg.ListNodes() {
			if s.ID == nodeID {
				pending = s.Pending
				break
			}
		}
		writeJSON(w, http.StatusOK, ReportAck{NodeID: nodeID, Status: "ok", Pending: pending})
	})

	mux.HandleFunc("/api/v1/commands", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if !nodeAuth(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			nodeID := r.URL.Query().Get("nodeId")
			if nodeID == "" {
				http.Error(w, "nodeId is required", http.StatusBadRequest)
				return
			}
			cmds := agg.GetCommands(nodeID)
			writeJSON(w, http.StatusOK, CommandsResponse{NodeID: nodeID, Commands: cmds})
		case http.MethodPost:
			if !operAuth(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			var req QueueCommandRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NodeID == "" || req.Command == "" {
				http.Error(w, "invalid payload", http.StatusBadRequest)
				return
			}
			agg.QueueCommand(req.NodeID, req.Command)
			log.Printf("queued command target=%s", req.NodeID)
			writeJSON(w, http.StatusOK, map[string]string{"status": "queued"})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/topology", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, agg.Topology())
	})

	mux.HandleFunc("/api/v1/nodes", func(w http.ResponseWriter, r *http.Request) {
		if !operAuth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, agg.ListNodes())
	})

	mux.HandleFunc("/api/v1/nodes/details", func(w http.ResponseWriter, r *http.Request) {
		if !operAuth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		nodeID := r.URL.Query().Get("nodeId")
		if nodeID == "" {
			http.Error(w, "nodeId is required", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, agg.NodeDetails(nodeID))
	})

	mux.HandleFunc("/api/v1/audit", func(w http.ResponseWriter, r *http.Request) {
		if !operAuth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, agg.ListAudit(50))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func authFunc(token string) func(r *http.Request) bool {
	if token == "" {
		return func(_ *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		h := r.Header.Get("X-Auth-Token")
		if h == "" {
			// also allow simple Bearer token
			authz := r.Header.Get("Authorization")
			if strings.HasPrefix(authz, "Bearer ") {
				h = strings.TrimPrefix(authz, "Bearer ")
			}
		}
		return h == token
	}
}
