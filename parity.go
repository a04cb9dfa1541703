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

// Package parity provides a small request/response service that tells clients
// whether the number they sent is even or odd, over TCP or UDP.
//
// A request is the raw bytes of one read (TCP) or one datagram (UDP). The
// literal "stop", compared case-insensitively, shuts the server down.
package parity

import (
	"context"
	"fmt"
	"net"

	goreuseport "github.com/kavu/go_reuseport"
	"github.com/pkg/errors"
	"trpc.group/trpc-go/parity/internal/netutil"
)

const (
	// BufferSize is the maximum number of bytes accepted per read or datagram.
	BufferSize = 2048

	defaultBacklog = 1
)

// Service provides startup method to udp/tcp server.
type Service interface {
	// Serve runs blockingly, handling requests until a client sends "stop",
	// ctx is cancelled, or the socket fails. The first two are orderly stops
	// and return nil. The socket is closed when Serve returns.
	Serve(ctx context.Context) error
}

// ListenTCP announces on the local network address with SO_REUSEADDR set and
// a small accept backlog (see WithBacklog).
// The network must be "tcp", "tcp4", "tcp6".
func ListenTCP(network, address string, opt ...Option) (net.Listener, error) {
	opts := newOptions(opt...)
	ln, err := netutil.ListenTCP(network, address, opts.backlog)
	if err != nil {
		return nil, errors.Wrap(err, "tcp listen error")
	}
	return ln, nil
}

// ListenUDP announces on the local network address. With WithReusePort(true)
// the socket is created with SO_REUSEPORT.
// The network must be "udp", "udp4", "udp6".
func ListenUDP(network, address string, opt ...Option) (net.PacketConn, error) {
	switch network {
	case "udp", "udp4", "udp6":
	default:
		return nil, fmt.Errorf("network %s is not support", network)
	}
	opts := newOptions(opt...)
	listenPacket := net.ListenPacket
	if opts.reusePort {
		listenPacket = goreuseport.ListenPacket
	}
	conn, err := listenPacket(network, address)
	if err != nil {
		return nil, errors.Wrap(err, "udp listen error")
	}
	return conn, nil
}

// WildcardAddress returns the address binding all interfaces on port.
func WildcardAddress(port int) string {
	return fmt.Sprintf(":%d", port)
}
