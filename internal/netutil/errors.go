//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

package netutil

import (
	"fmt"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// IsConnReset reports whether err means the peer reset or aborted the connection.
func IsConnReset(err error) bool {
	return errors.Is(err, unix.ECONNRESET) || errors.Is(err, unix.ECONNABORTED)
}

// IsBrokenPipe reports whether err is a write on a connection the peer already closed.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, unix.EPIPE)
}

// IsClosed reports whether err comes from using a closed socket.
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// IsTemporary reports whether an accept error is worth retrying.
func IsTemporary(err error) bool {
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR),
		errors.Is(err, unix.ECONNABORTED), errors.Is(err, unix.EMFILE),
		errors.Is(err, unix.ENFILE):
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ValidateTCP validates that listener is listening on TCP.
func ValidateTCP(listener net.Listener) error {
	switch network := listener.Addr().Network(); network {
	case "tcp", "tcp4", "tcp6":
		return nil
	default:
		return fmt.Errorf("expected listen on TCP, actual listen on %s", network)
	}
}

// ValidateUDP validates that conn is listening on UDP.
func ValidateUDP(conn net.PacketConn) error {
	switch network := conn.LocalAddr().Network(); network {
	case "udp", "udp4", "udp6":
		return nil
	default:
		return fmt.Errorf("expected listen on UDP, actual listen on %s", network)
	}
}
