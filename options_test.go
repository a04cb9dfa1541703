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
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"trpc.group/trpc-go/parity/log"
)

func TestParityOptions(t *testing.T) {
	opts := newOptions()
	assert.Equal(t, BufferSize, opts.bufferSize)
	assert.Equal(t, defaultBacklog, opts.backlog)
	assert.Equal(t, log.Default, opts.logger)
	assert.False(t, opts.reusePort)

	WithBufferSize(512).f(&opts)
	assert.Equal(t, 512, opts.bufferSize)
	WithBufferSize(-1).f(&opts)
	assert.Equal(t, 512, opts.bufferSize)

	WithBacklog(8).f(&opts)
	assert.Equal(t, 8, opts.backlog)
	WithBacklog(0).f(&opts)
	assert.Equal(t, 8, opts.backlog)

	WithLogger(log.Nop).f(&opts)
	assert.Equal(t, log.Nop, opts.logger)
	WithLogger(nil).f(&opts)
	assert.Equal(t, log.Nop, opts.logger)

	WithReusePort(true).f(&opts)
	assert.True(t, opts.reusePort)

	handler := func(conn net.Conn) error {
		return errors.New("test")
	}
	WithOnTCPOpened(handler).f(&opts)
	assert.Equal(t, opts.onTCPOpened(nil), handler(nil))

	WithOnTCPClosed(func(net.Conn) {}).f(&opts)
	assert.NotNil(t, opts.onTCPClosed)
}
