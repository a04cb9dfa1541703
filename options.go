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

package parity

import (
	"net"

	"trpc.group/trpc-go/parity/log"
)

// OnTCPOpened fires when a tcp connection is accepted, before its session starts.
// Returning an error rejects the connection.
type OnTCPOpened func(conn net.Conn) error

// OnTCPClosed fires after a tcp session ended and its connection was closed.
// Do not read or write the connection in it.
type OnTCPClosed func(conn net.Conn)

// Option parity service option.
type Option struct {
	f func(*options)
}

type options struct {
	logger      log.Logger
	onTCPOpened OnTCPOpened
	onTCPClosed OnTCPClosed
	bufferSize  int
	backlog     int
	reusePort   bool
}

func (o *options) setDefault() {
	o.logger = log.Default
	o.bufferSize = BufferSize
	o.backlog = defaultBacklog
}

func newOptions(opt ...Option) options {
	var opts options
	opts.setDefault()
	for _, o := range opt {
		o.f(&opts)
	}
	return opts
}

// WithLogger sets the logger used by the service and its sessions.
// A nil logger is ignored.
func WithLogger(l log.Logger) Option {
	return Option{func(op *options) {
		if l != nil {
			op.logger = l
		}
	}}
}

// WithBufferSize sets the size of a single read, BufferSize by default.
// Non-positive values are ignored.
func WithBufferSize(size int) Option {
	return Option{func(op *options) {
		if size > 0 {
			op.bufferSize = size
		}
	}}
}

// WithBacklog sets the listen backlog used by ListenTCP, 1 by default.
func WithBacklog(backlog int) Option {
	return Option{func(op *options) {
		if backlog > 0 {
			op.backlog = backlog
		}
	}}
}

// WithReusePort enables SO_REUSEPORT on the socket created by ListenUDP.
func WithReusePort(reuse bool) Option {
	return Option{func(op *options) {
		op.reusePort = reuse
	}}
}

// WithOnTCPOpened registers the OnTCPOpened method that is fired when connection is accepted.
func WithOnTCPOpened(onTCPOpened OnTCPOpened) Option {
	return Option{func(op *options) {
		op.onTCPOpened = onTCPOpened
	}}
}

// WithOnTCPClosed registers the OnTCPClosed method that is fired when tcp connection is closed.
func WithOnTCPClosed(onTCPClosed OnTCPClosed) Option {
	return Option{func(op *options) {
		op.onTCPClosed = onTCPClosed
	}}
}
