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

// Package netutil provides network netutil functions.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

package netutil

import (
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ListenTCP creates a tcp listener with SO_REUSEADDR set and the given accept
// backlog. net.Listen always uses the system maximum backlog, so the socket
// is built by hand and handed to net.FileListener.
func ListenTCP(network, address string, backlog int) (net.Listener, error) {
	switch network {
	case "tcp", "tcp4", "tcp6":
	default:
		return nil, fmt.Errorf("network %s is not support", network)
	}
	addr, err := net.ResolveTCPAddr(network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve tcp address %s", address)
	}
	sa, family, err := tcpSockaddr(network, addr)
	if err != nil {
		return nil, err
	}

	syscall.ForkLock.RLock()
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err == nil {
		unix.CloseOnExec(fd)
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return nil, errors.Wrap(os.NewSyscallError("socket", err), "create tcp socket")
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(os.NewSyscallError("setsockopt", err), "set SO_REUSEADDR")
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(os.NewSyscallError("bind", err), "bind %s", address)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(os.NewSyscallError("listen", err), "listen %s", address)
	}

	file := os.NewFile(uintptr(fd), fmt.Sprintf("parity.%d.%s.%s", os.Getpid(), network, address))
	// FileListener dups the descriptor, the file itself is always closed.
	defer file.Close()
	ln, err := net.FileListener(file)
	if err != nil {
		return nil, errors.Wrap(err, "wrap tcp socket")
	}
	return ln, nil
}

func tcpSockaddr(network string, addr *net.TCPAddr) (unix.Sockaddr, int, error) {
	ip4 := addr.IP.To4()
	switch {
	case network != "tcp6" && (len(addr.IP) == 0 || ip4 != nil):
		sa := &unix.SockaddrInet4{Port: addr.Port}
		if ip4 != nil {
			copy(sa.Addr[:], ip4)
		}
		return sa, unix.AF_INET, nil
	case network != "tcp4":
		sa := &unix.SockaddrInet6{Port: addr.Port}
		if len(addr.IP) != 0 {
			copy(sa.Addr[:], addr.IP.To16())
		}
		if addr.Zone != "" {
			ifi, err := net.InterfaceByName(addr.Zone)
			if err != nil {
				return nil, -1, errors.Wrapf(err, "zone %s", addr.Zone)
			}
			sa.ZoneId = uint32(ifi.Index)
		}
		return sa, unix.AF_INET6, nil
	default:
		return nil, -1, fmt.Errorf("non-IPv4 address %s for %s", addr.IP, network)
	}
}
