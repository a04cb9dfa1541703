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
	"io"
	"net"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"trpc.group/trpc-go/parity/internal/netutil"
	"trpc.group/trpc-go/parity/log"
	"trpc.group/trpc-go/parity/metrics"
)

// tcpSession owns one accepted connection from accept until close.
type tcpSession struct {
	conn        net.Conn
	peer        net.Addr
	logger      log.Logger
	buf         []byte
	interrupted func() bool
	closed      atomic.Bool
}

func newTCPSession(conn net.Conn, logger log.Logger, bufferSize int, interrupted func() bool) *tcpSession {
	return &tcpSession{
		conn:        conn,
		peer:        conn.RemoteAddr(),
		logger:      logger,
		buf:         make([]byte, bufferSize),
		interrupted: interrupted,
	}
}

// run reads and answers messages until the peer leaves, an I/O error occurs or
// a stop command arrives. Only the latter returns Shutdown.
func (s *tcpSession) run() Action {
	defer s.close()
	s.logger.Infof("connection established with %s", s.peer)
	for {
		n, err := s.conn.Read(s.buf)
		if n > 0 {
			metrics.Add(metrics.TCPReadBytes, uint64(n))
			action, ok := s.handle(s.buf[:n])
			if action == Shutdown || !ok {
				return action
			}
		}
		if err != nil {
			s.readFailed(err)
			return Continue
		}
	}
}

// handle answers one token. ok is false when the response could not be
// written and the session must end; a decided Shutdown is still returned.
func (s *tcpSession) handle(token []byte) (action Action, ok bool) {
	msg, err := Decode(token)
	if err != nil {
		countResult(malformedResult)
		s.logger.Warnf("received invalid message from %s: %q", s.peer, token)
		return Continue, s.send(malformedResult.Response)
	}
	s.logger.Infof("received message from %s: %s", s.peer, msg)

	res := Process(msg)
	countResult(res)
	if res.Action == Shutdown {
		s.logger.Warnf("received stop command from %s, shutting down server...", s.peer)
	}
	if !s.send(res.Response) {
		return res.Action, false
	}
	s.logger.Infof("sent response to %s: %s", s.peer, res.Response)
	return res.Action, true
}

func (s *tcpSession) send(rsp string) bool {
	if _, err := s.conn.Write(encodeResponse(rsp)); err != nil {
		metrics.Add(metrics.TCPSendFails, 1)
		switch {
		case netutil.IsBrokenPipe(err) || netutil.IsConnReset(err):
			s.logger.Warnf("client %s went away before the response was sent: %v", s.peer, err)
		case s.interrupted():
			s.logger.Infof("session with %s interrupted while sending", s.peer)
		default:
			s.logger.Errorf("error sending response to %s: %v", s.peer, err)
		}
		return false
	}
	return true
}

func (s *tcpSession) readFailed(err error) {
	switch {
	case errors.Is(err, io.EOF):
		s.logger.Infof("client %s disconnected.", s.peer)
	case netutil.IsConnReset(err):
		metrics.Add(metrics.TCPPeerResets, 1)
		s.logger.Warnf("connection reset by client %s", s.peer)
	case s.interrupted():
		s.logger.Infof("session with %s interrupted", s.peer)
	default:
		s.logger.Errorf("error reading from %s: %v", s.peer, err)
	}
}

// close closes the connection exactly once.
func (s *tcpSession) close() {
	if !s.closed.CAS(false, true) {
		return
	}
	if err := s.conn.Close(); err != nil {
		s.logger.Debugf("close connection with %s: %v", s.peer, err)
	}
	metrics.Add(metrics.TCPConnsClosed, 1)
}
