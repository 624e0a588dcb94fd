// Package store persists intake data in JetStream key-value buckets served by
// an embedded, in-process NATS server.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Bucket names.
const (
	BucketConsultations = "consultations"
	BucketPosts         = "posts"
	BucketSubscribers   = "subscribers"
	BucketWorkSessions  = "work_sessions"
)

// Server owns the embedded NATS server and its in-process connection.
type Server struct {
	ns     *server.Server
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// Open starts an embedded NATS server with JetStream file storage under
// dataDir and connects to it in-process. No network port is opened.
func Open(dataDir string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "store")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	logger.Debug("starting embedded nats", "data_dir", dataDir)
	ns, err := server.NewServer(&server.Options{
		JetStream:  true,
		StoreDir:   dataDir,
		DontListen: true,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("store: create nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(4 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("store: nats server failed to start within timeout")
	}

	nc, err := nats.Connect("", nats.InProcessServer(ns))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("store: connect in-process: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("store: jetstream: %w", err)
	}

	logger.Info("embedded nats ready", "data_dir", dataDir)
	return &Server{ns: ns, nc: nc, js: js, logger: logger}, nil
}

// JetStream exposes the JetStream context for opening buckets.
func (s *Server) JetStream() jetstream.JetStream { return s.js }

// Logger returns the store's logger.
func (s *Server) Logger() *slog.Logger { return s.logger }

// Close drains the connection and shuts the server down, forcing each step
// after a timeout.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}

	if s.nc != nil {
		drained := make(chan error, 1)
		go func() { drained <- s.nc.Drain() }()

		select {
		case err := <-drained:
			if err != nil {
				s.logger.Warn("nats drain failed, forcing close", "error", err)
				s.nc.Close()
			}
		case <-time.After(2 * time.Second):
			s.logger.Warn("nats drain timed out, forcing close")
			s.nc.Close()
		}
	}

	if s.ns != nil {
		s.ns.Shutdown()

		done := make(chan struct{})
		go func() {
			s.ns.WaitForShutdown()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			return errors.New("store: nats server shutdown timed out")
		}
	}

	s.logger.Debug("embedded nats stopped")
	return nil
}

// Ping reports whether the connection is usable.
func (s *Server) Ping(ctx context.Context) error {
	if s.nc == nil || !s.nc.IsConnected() {
		return errors.New("store: not connected")
	}
	if _, err := s.js.AccountInfo(ctx); err != nil {
		return fmt.Errorf("store: jetstream unavailable: %w", err)
	}
	return nil
}
