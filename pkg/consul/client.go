package consul

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/hashicorp/consul/api"
)

// Client registers this service instance with a consul agent. The
// health check polls the service's own /health endpoint.
type Client struct {
	log         *slog.Logger
	client      *api.Client
	serviceID   string
	serviceName string
}

func NewClient(log *slog.Logger, consulAddr, serviceName, httpAddr string) (*Client, error) {
	config := api.DefaultConfig()
	config.Address = consulAddr

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("resolve hostname: %w", err)
	}

	_, portStr, err := net.SplitHostPort(httpAddr)
	if err != nil {
		return nil, fmt.Errorf("parse http addr %q: %w", httpAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse http port %q: %w", portStr, err)
	}

	c := &Client{
		log:         log,
		client:      client,
		serviceID:   fmt.Sprintf("%s-%s", serviceName, hostname),
		serviceName: serviceName,
	}

	registration := &api.AgentServiceRegistration{
		ID:      c.serviceID,
		Name:    serviceName,
		Port:    port,
		Address: hostname,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", hostname, port),
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, fmt.Errorf("register service: %w", err)
	}
	log.Info("registered with consul", "service_id", c.serviceID, "port", port)
	return c, nil
}

func (c *Client) Deregister() {
	if err := c.client.Agent().ServiceDeregister(c.serviceID); err != nil {
		c.log.Error("consul deregister failed", "service_id", c.serviceID, "err", err)
		return
	}
	c.log.Info("deregistered from consul", "service_id", c.serviceID)
}
