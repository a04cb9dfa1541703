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

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"trpc.group/trpc-go/parity/internal/netutil"
	"trpc.group/trpc-go/parity/metrics"
)

// NewUDPService creates a udp Service on conn. It is recommended to create
// conn by func parity.ListenUDP.
//
// Every datagram is handled on its own and answered to the address it came
// from. Nothing is remembered between datagrams.
func NewUDPService(conn net.PacketConn, opt ...Option) (Service, error) {
	if conn == nil {
		return nil, errors.New("packet conn is nil")
	}
	if err := netutil.ValidateUDP(conn); err != nil {
		return nil, fmt.Errorf("validate listener fail: %w", err)
	}
	return &udpservice{
		conn: conn,
		opts: newOptions(opt...),
	}, nil
}

type udpservice struct {
	conn    net.PacketConn
	opts    options
	serving atomic.Bool
	closed  atomic.Bool
}

// Serve starts the service.
func (s *udpservice) Serve(ctx context.Context) error {
	if !s.serving.CAS(false, true) {
		return errors.New("udp service is already serving")
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
	logger.Infof("parity udp service listening on %s", s.conn.LocalAddr())
	buf := make([]byte, s.opts.bufferSize)
	for {
		n, peer, err := s.conn.ReadFrom(buf)
		if err != nil {
			if s.closed.Load() {
				logger.Warnf("stopping udp service: %v", context.Cause(ctx))
				return nil
			}
			if netutil.IsClosed(err) {
				return errors.Wrap(err, "udp service receive error")
			}
			logger.Errorf("udp service receive error: %v", err)
			continue
		}
		metrics.Add(metrics.UDPDatagramsReceived, 1)
		if s.handleDatagram(buf[:n], peer) == Shutdown {
			logger.Warn("udp service shut down by stop command")
			return nil
		}
	}
}

// handleDatagram answers one datagram to peer. Invalid UTF-8 is dropped
// without a reply. A failed reply does not cancel a decided Shutdown.
func (s *udpservice) handleDatagram(token []byte, peer net.Addr) (action Action) {
	logger := s.opts.logger
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("error processing datagram from %s: %v\n%s", peer, r, debug.Stack())
			action = Continue
		}
	}()

	msg, err := Decode(token)
	if err != nil {
		countResult(malformedResult)
		metrics.Add(metrics.UDPDatagramsDropped, 1)
		logger.Warnf("dropped invalid message from %s: %q", peer, token)
		return Continue
	}
	logger.Infof("received message from %s: %s", peer, msg)

	res := Process(msg)
	countResult(res)
	if _, err := s.conn.WriteTo(encodeResponse(res.Response), peer); err != nil {
		metrics.Add(metrics.UDPSendFails, 1)
		logger.Errorf("error sending response to %s: %v", peer, err)
	} else {
		logger.Infof("sent response to %s: %s", peer, res.Response)
	}
	if res.Action == Shutdown {
		logger.Warnf("received stop command from %s, shutting down server...", peer)
	}
	return res.Action
}

func (s *udpservice) close() error {
	if !s.closed.CAS(false, true) {
		return nil
	}
	return s.conn.Close()
}
