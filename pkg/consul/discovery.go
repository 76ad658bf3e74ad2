package consul

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// ServiceName is the name the controller registers under.
const ServiceName = "meshview-controller"

// Register announces the controller in the consul catalog so agents can
// discover it without a configured address. State itself stays in-process;
// consul carries discovery only.
func Register(consulAddr, serviceID, host string, port int) error {
	cli, err := client(consulAddr)
	if err != nil {
		return err
	}
	reg := &consulapi.AgentServiceRegistration{
		ID:      serviceID,
		Name:    ServiceName,
		Address: host,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", host, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	return cli.Agent().ServiceRegister(reg)
}

// Deregister removes the controller from the catalog on shutdown.
func Deregister(consulAddr, serviceID string) error {
	cli, err := client(consulAddr)
	if err != nil {
		return err
	}
	return cli.Agent().ServiceDeregister(serviceID)
}

// Resolve returns the base URL of a healthy controller instance.
func Resolve(consulAddr string) (string, error) {
	cli, err := client(consulAddr)
	if err != nil {
		return "", err
	}
	entries, _, err := cli.Health().Service(ServiceName, "", true, nil)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no healthy %s instance in consul", ServiceName)
	}
	svc := entries[0].Service
	host := svc.Address
	if host == "" {
		host = entries[0].Node.Address
	}
	return fmt.Sprintf("http://%s:%d", host, svc.Port), nil
}

func client(addr string) (*consulapi.Client, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	return consulapi.NewClient(cfg)
}
