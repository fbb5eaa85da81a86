package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/giftring/giftring-core/api"
	"github.com/giftring/giftring-core/engine"
	"github.com/giftring/giftring-core/log"
)

// apiShutdownGrace bounds how long Stop waits for in-flight requests.
const apiShutdownGrace = 5 * time.Second

// APIService runs the HTTP API server over a protocol engine with a
// start/stop lifecycle driven by the daemon and the tests.
type APIService struct {
	engine *engine.Engine
	host   string
	port   int

	mu  sync.Mutex
	api *api.API
}

// NewAPI creates an APIService serving eng on host:port. Port 0 picks a
// free port, observable through HostPort once started.
func NewAPI(eng *engine.Engine, host string, port int) *APIService {
	return &APIService{
		engine: eng,
		host:   host,
		port:   port,
	}
}

// Start binds the listener and begins serving the API in the background.
// The context only covers startup; the server runs until Stop. It returns
// an error if the service is already running or the listener cannot bind.
func (as *APIService) Start(_ context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.api != nil {
		return fmt.Errorf("service already running")
	}

	a, err := api.New(&api.APIConfig{
		Host:   as.host,
		Port:   as.port,
		Engine: as.engine,
	})
	if err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	as.api = a
	return nil
}

// Stop gracefully shuts the API server down, draining in-flight requests.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.api == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), apiShutdownGrace)
	defer cancel()
	if err := as.api.Shutdown(ctx); err != nil {
		log.Warnw("API server shutdown", "error", err.Error())
	}
	as.api = nil
}

// HostPort returns the address the API server is bound to. Before Start it
// reports the configured values.
func (as *APIService) HostPort() (string, int) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.api != nil {
		if addr, ok := as.api.Addr().(*net.TCPAddr); ok {
			return as.host, addr.Port
		}
	}
	return as.host, as.port
}
