//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 THL A29 Limited, a Tencent company.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package parity

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"trpc.group/trpc-go/parity/internal/netutil"
	"trpc.group/trpc-go/parity/metrics"
)

// NewTCPService creates a tcp Service and binds it to a listener. It is
// recommended to create listener by func parity.ListenTCP.
//
// Connections are served one at a time: the next connection is accepted only
// after the current session ended.
func NewTCPService(listener net.Listener, opt ...Option) (Service, error) {
	if listener == nil {
		return nil, errors.New("listener is nil")
	}
	if err := netutil.ValidateTCP(listener); err != nil {
		return nil, fmt.Errorf("validate listener fail: %w", err)
	}
	return &tcpservice{
		ln:   listener,
		opts: newOptions(opt...),
	}, nil
}

type tcpservice struct {
	ln      net.Listener
	opts    options
	serving atomic.Bool
	closed  atomic.Bool

	mu     sync.Mutex
	active net.Conn
}

// Serve starts the service.
func (s *tcpservice) Serve(ctx context.Context) error {
	if !s.serving.CAS(false, true) {
		return errors.New("tcp service is already serving")
	}
	defer s.close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.close()
		case <-done:
		}
	}()

	logger := s.opts.logger
	logger.Infof("parity tcp service listening on %s", s.ln.Addr())
	logger.Info("waiting for client connections...")
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.closed.Load() {
				logger.Warnf("stopping tcp service: %v", context.Cause(ctx))
				return nil
			}
			if netutil.IsTemporary(err) {
				logger.Warnf("tcp service temporary accept error: %v", err)
				continue
			}
			return errors.Wrap(err, "tcp service accept error")
		}
		if s.serveConn(conn) == Shutdown {
			logger.Warn("tcp service shut down by stop command")
			return nil
		}
	}
}

// serveConn runs one session to completion. A panic inside the session is
// logged and swallowed so the accept loop keeps going.
func (s *tcpservice) serveConn(conn net.Conn) (action Action) {
	metrics.Add(metrics.TCPConnsAccepted, 1)
	sess := newTCPSession(conn, s.opts.logger, s.opts.bufferSize, s.closed.Load)
	defer func() {
		if r := recover(); r != nil {
			s.opts.logger.Errorf("error processing message from %s: %v\n%s", sess.peer, r, debug.Stack())
			action = Continue
		}
		sess.close()
		s.untrack()
		if s.opts.onTCPClosed != nil {
			s.opts.onTCPClosed(conn)
		}
	}()

	if s.opts.onTCPOpened != nil {
		if err := s.opts.onTCPOpened(conn); err != nil {
			s.opts.logger.Warnf("connection from %s rejected: %v", sess.peer, err)
			return Continue
		}
	}
	if !s.track(conn) {
		return Continue
	}
	return sess.run()
}

// track records the connection being served so that close can interrupt it.
// It returns false if the service is already closed.
func (s *tcpservice) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.active = conn
	return true
}

func (s *tcpservice) untrack() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

// close stops accepting and wakes the active session whether it is blocked
// reading or writing. The session closes its own connection; here it only
// gets an expired deadline.
func (s *tcpservice) close() error {
	if !s.closed.CAS(false, true) {
		return nil
	}
	s.mu.Lock()
	if s.active != nil {
		s.active.SetDeadline(time.Now())
	}
	s.mu.Unlock()
	return s.ln.Close()
}
