// internal/peripheral/server.go
package peripheral

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/tamzrod/modbus-armcheck/internal/logging"
	"github.com/tamzrod/modbus-armcheck/internal/store"
)

const (
	serverIdleTimeout = 30 * time.Second
	serverMaxClients  = 4
)

// Server exposes a store over Modbus/TCP.
type Server struct {
	url string
	srv *modbus.ModbusServer
	log *slog.Logger
}

// NewServer prepares a listener on url, e.g. tcp://127.0.0.1:5502.
func NewServer(url string, st *store.Store, log *slog.Logger) (*Server, error) {
	srv, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        url,
		Timeout:    serverIdleTimeout,
		MaxClients: serverMaxClients,
	}, NewHandler(st, log))
	if err != nil {
		return nil, fmt.Errorf("peripheral: server %s: %w", url, err)
	}
	return &Server{url: url, srv: srv, log: logging.For(log, logging.ComponentPeripheral)}, nil
}

// Start returns once the listener is up.
func (s *Server) Start() error {
	if err := s.srv.Start(); err != nil {
		return fmt.Errorf("peripheral: start %s: %w", s.url, err)
	}
	s.log.Info("modbus server listening", "url", s.url)
	return nil
}

func (s *Server) Stop() error {
	err := s.srv.Stop()
	s.log.Info("modbus server stopped", "url", s.url)
	return err
}
