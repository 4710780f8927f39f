// Package consul registers the service with the local consul agent.
package consul

import (
	"fmt"
	"net"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

type Registration struct {
	ID      string
	Name    string
	Host    string
	Port    int
	Healthz string
}

func NewClient(addr string) (*consulapi.Client, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = addr
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// RegisterService announces the service with an HTTP health check on r.Healthz.
func RegisterService(client *consulapi.Client, r Registration) error {
	if err := client.Agent().ServiceRegister(agentRegistration(r)); err != nil {
		return fmt.Errorf("failed to register %s with consul: %w", r.Name, err)
	}
	return nil
}

func DeregisterService(client *consulapi.Client, id string) error {
	if err := client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister %s from consul: %w", id, err)
	}
	return nil
}

func agentRegistration(r Registration) *consulapi.AgentServiceRegistration {
	return &consulapi.AgentServiceRegistration{
		ID:      r.ID,
		Name:    r.Name,
		Address: r.Host,
		Port:    r.Port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           "http://" + net.JoinHostPort(r.Host, strconv.Itoa(r.Port)) + r.Healthz,
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}
