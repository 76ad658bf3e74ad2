package main

import (
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"meshview/pkg/aggregator"
	"meshview/pkg/api"
	"meshview/pkg/consul"
	"meshview/pkg/db"
	"meshview/pkg/version"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	defaultToken := os.Getenv("AUTH_TOKEN")
	defaultConsul := os.Getenv("CONSUL_ADDR")

	addr := flag.String("addr", ":8080", "listen address")
	token := flag.String("token", defaultToken, "shared node auth token (optional, env AUTH_TOKEN)")
	activeWindow := flag.Duration("active-window", 5*time.Second, "age threshold for marking nodes inactive")
	users := flag.Bool("users", false, "enable operator accounts (MySQL) and JWT auth on operator endpoints")
	consulAddr := flag.String("consul-addr", defaultConsul, "consul address for service registration (optional, env CONSUL_ADDR)")
	advertise := flag.String("advertise", "127.0.0.1", "address advertised to consul")
	tlsCert := flag.String("tls-cert", "", "TLS cert path (enables HTTPS if set with --tls-key)")
	tlsKey := flag.String("tls-key", "", "TLS key path (enables HTTPS if set with --tls-cert)")
	clientCA := flag.String("client-ca", "", "require and verify client certs using this CA (optional)")
	showVersion := flag.Bool("v", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		log.Printf("controller version=%s", version.Build)
		return
	}

	agg := aggregator.New(aggregator.WithActiveWindow(*activeWindow))

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, agg, *token, *users)

	if *users {
		conn, err := db.Init()
		if err != nil {
			log.Fatalf("user db init failed: %v", err)
		}
		authHandler := &api.AuthHandler{DB: conn}
		authHandler.RegisterRoutes(mux)
	}

	hub := api.NewWSHub(agg)
	mux.HandleFunc("/api/v1/ws/agent", hub.HandleAgentWS)
	mux.Handle("/ui/", http.StripPrefix("/ui/", http.FileServer(http.Dir("web"))))

	if *consulAddr != "" {
		port := listenPort(*addr)
		serviceID := consul.ServiceName + "-" + *advertise + "-" + strconv.Itoa(port)
		if err := consul.Register(*consulAddr, serviceID, *advertise, port); err != nil {
			log.Printf("consul register failed: %v", err)
		} else {
			log.Printf("registered in consul as %s", serviceID)
			go func() {
				sig := make(chan os.Signal, 1)
				signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
				<-sig
				if err := consul.Deregister(*consulAddr, serviceID); err != nil {
					log.Printf("consul deregister failed: %v", err)
				}
				os.Exit(0)
			}()
		}
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("controller listening on %s (active window %s)", *addr, *activeWindow)
	var err error
	if *tlsCert != "" && *tlsKey != "" {
		if *clientCA != "" {
			cfg, errTLS := api.ServerTLSConfig(*tlsCert, *tlsKey, *clientCA)
			if errTLS != nil {
				log.Fatalf("failed to build TLS config: %v", errTLS)
			}
			srv.TLSConfig = cfg
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServeTLS(*tlsCert, *tlsKey)
		}
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func listenPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 8080
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 8080
	}
	return port
}
