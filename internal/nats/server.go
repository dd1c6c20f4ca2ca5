// Package nats manages the NATS server and connections carrying the wizard's
// cross-subsystem events.
package nats

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/mark3labs/remindr/internal/logger"
)

// ServerOptions configures the embedded server.
type ServerOptions struct {
	// ListenAddr exposes the server on host:port so other processes can join
	// the session. Empty keeps it in-process only.
	ListenAddr string
}

// StartEmbeddedNATS starts an embedded NATS server. Nothing is persisted:
// events are fire-and-forget.
// Returns the server instance or an error if startup fails.
func StartEmbeddedNATS(opts ServerOptions) (*server.Server, error) {
	sopts := &server.Options{
		DontListen: true, // No network ports - in-process only
		NoSigs:     true,
		NoLog:      true,
	}
	if opts.ListenAddr != "" {
		host, portStr, err := net.SplitHostPort(opts.ListenAddr)
		if err != nil {
			return nil, fmt.Errorf("parsing listen address %q: %w", opts.ListenAddr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("parsing listen port %q: %w", portStr, err)
		}
		sopts.DontListen = false
		sopts.Host = host
		sopts.Port = port
	}
	logger.Debug("Starting embedded NATS server (listen=%q)", opts.ListenAddr)

	ns, err := server.NewServer(sopts)
	if err != nil {
		logger.Error("Failed to create NATS server: %v", err)
		return nil, err
	}

	// Start server in background goroutine
	go ns.Start()

	if !ns.ReadyForConnections(4 * time.Second) {
		logger.Error("NATS server failed to start within 4s timeout")
		ns.Shutdown()
		return nil, errors.New("nats server failed to start within timeout")
	}

	logger.Debug("NATS server ready for connections")
	return ns, nil
}

// ConnectInProcess creates an in-process connection to the embedded NATS server.
// This connection does not use network ports and communicates directly with the server.
func ConnectInProcess(ns *server.Server) (*nats.Conn, error) {
	logger.Debug("Connecting to NATS server in-process")
	conn, err := nats.Connect("", nats.InProcessServer(ns), nats.Name("remindr"))
	if err != nil {
		logger.Error("Failed to connect to NATS in-process: %v", err)
		return nil, err
	}
	return conn, nil
}

// Connect dials an external NATS server.
func Connect(url string) (*nats.Conn, error) {
	logger.Debug("Connecting to NATS server at %s", url)
	conn, err := nats.Connect(url,
		nats.Name("remindr"),
		nats.Timeout(4*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return conn, nil
}

// SubjectForSession returns the wildcard subject pattern for all events in a session.
// Example: "remindr.mysession.>"
func SubjectForSession(session string) string {
	return fmt.Sprintf("remindr.%s.>", session)
}

// SubjectForEvent returns the specific subject for an event topic in a session.
// Example: "remindr.mysession.channel-selected"
func SubjectForEvent(session, topic string) string {
	return fmt.Sprintf("remindr.%s.%s", session, topic)
}

// Shutdown gracefully shuts down the NATS connection and server.
// It first drains and closes the connection, then shuts down the server
// with a timeout to allow in-flight operations to complete.
func Shutdown(nc *nats.Conn, ns *server.Server) error {
	logger.Debug("Starting NATS shutdown")

	if nc != nil {
		// Use a timeout for drain to prevent hanging
		drainDone := make(chan error, 1)
		go func() {
			drainDone <- nc.Drain()
		}()

		select {
		case err := <-drainDone:
			if err != nil {
				logger.Warn("NATS drain failed, forcing close: %v", err)
				nc.Close()
			}
		case <-time.After(2 * time.Second):
			logger.Warn("NATS drain timed out after 2s, forcing close")
			nc.Close()
		}
		// Drain returns before the connection is fully closed.
		for i := 0; i < 100 && !nc.IsClosed(); i++ {
			time.Sleep(10 * time.Millisecond)
		}
	}

	if ns != nil {
		ns.Shutdown()

		// WaitForShutdown with timeout to prevent hanging
		shutdownDone := make(chan struct{})
		go func() {
			ns.WaitForShutdown()
			close(shutdownDone)
		}()

		select {
		case <-shutdownDone:
		case <-time.After(5 * time.Second):
			logger.Error("NATS server shutdown timed out after 5s")
			return errors.New("NATS server shutdown timed out")
		}
	}

	logger.Debug("NATS shutdown complete")
	return nil
}
