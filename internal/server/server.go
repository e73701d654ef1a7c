// Package server exposes the agent to the browser application running on the
// same workstation: a WebSocket weight stream at /ws and a small JSON API for
// printing and scale configuration.
//
//	srv, err := server.New(deps)
//	err = srv.Start(ctx)
//	defer srv.Close()
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/NowakAdmin/ScaleBridge/internal/broadcast"
	"github.com/NowakAdmin/ScaleBridge/internal/printing"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

const gracefulShutdownTimeout = 5 * time.Second

// ScaleService is the part of the scale subsystem the API drives.
type ScaleService interface {
	Status() scale.Status
	Ports() ([]string, error)
	// Reconfigure persists the new endpoint and forces a full reconnect.
	Reconfigure(path string, baud int) error
}

type PrintService interface {
	Dispatch(ctx context.Context, req printing.Request) printing.Result
	TestConnectivity(ctx context.Context, host string, port int) printing.Reachability
	Printers(ctx context.Context) ([]string, error)
}

type Deps struct {
	Listen   string
	Logger   zerolog.Logger
	Hub      *broadcast.Hub[scale.Event]
	Scale    ScaleService
	Printing PrintService
	Version  string
}

type Server struct {
	listen   string
	logger   zerolog.Logger
	hub      *broadcast.Hub[scale.Event]
	scale    ScaleService
	printing PrintService
	version  string

	httpServer *http.Server
	listener   net.Listener
	serveErr   chan error
}

func New(deps Deps) (*Server, error) {
	if deps.Hub == nil {
		return nil, errors.New("server: hub is required")
	}
	if deps.Scale == nil {
		return nil, errors.New("server: scale service is required")
	}
	if deps.Printing == nil {
		return nil, errors.New("server: print service is required")
	}

	return &Server{
		listen:   deps.Listen,
		logger:   deps.Logger,
		hub:      deps.Hub,
		scale:    deps.Scale,
		printing: deps.Printing,
		version:  deps.Version,
	}, nil
}

// Start binds the listen address and serves in the background. Binding errors
// are returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.listen)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.listen, err)
	}

	s.listener = ln
	s.serveErr = make(chan error, 1)
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveErr <- err
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Serwer HTTP uruchomiony")
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.listen
	}
	return s.listener.Addr().String()
}

func (s *Server) Close() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if serveErr := <-s.serveErr; serveErr != nil && err == nil {
		err = serveErr
	}
	s.httpServer = nil

	s.logger.Info().Msg("Serwer HTTP zatrzymany")
	return err
}
