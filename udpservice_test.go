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

package parity_test

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/parity"
	"trpc.group/trpc-go/parity/log"
	"trpc.group/trpc-go/parity/metrics"
)

func startUDPService(t *testing.T, ctx context.Context, opts ...parity.Option) (string, chan error) {
	conn, err := parity.ListenUDP("udp", getTestAddr(), opts...)
	require.Nil(t, err)
	s, err := parity.NewUDPService(conn, append([]parity.Option{parity.WithLogger(log.Nop)}, opts...)...)
	require.Nil(t, err)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx)
	}()
	return conn.LocalAddr().String(), errCh
}

func TestNewUDPService_err(t *testing.T) {
	_, err := parity.NewUDPService(nil)
	assert.NotNil(t, err)

	_, err = parity.ListenUDP("tcp", getTestAddr())
	assert.NotNil(t, err)
}

func TestUDPServiceScenario(t *testing.T) {
	addr, errCh := startUDPService(t, context.Background())

	c, err := parity.DialUDP("udp", addr, time.Second)
	require.Nil(t, err)
	defer c.Close()

	for in, want := range map[string]string{
		"4":    parity.RspEven,
		"-7":   parity.RspOdd,
		"12a":  parity.RspNotANumber,
		" 10 ": parity.RspEven,
	} {
		rsp, err := c.Send(in)
		require.Nil(t, err, in)
		assert.Equal(t, want, rsp, in)
	}

	rsp, err := c.Send("Stop")
	require.Nil(t, err)
	assert.Equal(t, parity.RspShutdown, rsp)
	assert.Nil(t, waitServe(t, errCh))

	// Nobody answers anymore.
	c2, err := parity.DialUDP("udp", addr, 200*time.Millisecond)
	require.Nil(t, err)
	defer c2.Close()
	_, err = c2.Send("1")
	assert.NotNil(t, err)
}

func TestUDPServiceRepliesToEachSender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, _ := startUDPService(t, ctx)

	a, err := parity.DialUDP("udp", addr, time.Second)
	require.Nil(t, err)
	defer a.Close()
	b, err := parity.DialUDP("udp", addr, time.Second)
	require.Nil(t, err)
	defer b.Close()
	require.NotEqual(t, a.LocalAddr().String(), b.LocalAddr().String())

	var wg sync.WaitGroup
	for _, c := range []*parity.Client{a, b} {
		wg.Add(1)
		go func(c *parity.Client) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				rsp, err := c.Send("3")
				assert.Nil(t, err)
				assert.Equal(t, parity.RspOdd, rsp)
			}
		}(c)
	}
	wg.Wait()
}

func TestUDPServiceReplyGoesToOriginatingPort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, _ := startUDPService(t, ctx)
	server, err := net.ResolveUDPAddr("udp", addr)
	require.Nil(t, err)

	a, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.Nil(t, err)
	defer a.Close()
	b, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.Nil(t, err)
	defer b.Close()

	_, err = a.WriteTo([]byte("2"), server)
	require.Nil(t, err)
	_, err = b.WriteTo([]byte("3"), server)
	require.Nil(t, err)

	buf := make([]byte, parity.BufferSize)
	a.SetReadDeadline(time.Now().Add(time.Second))
	n, from, err := a.ReadFrom(buf)
	require.Nil(t, err)
	assert.Equal(t, server.Port, from.(*net.UDPAddr).Port)
	assert.Equal(t, parity.RspEven+"\n", string(buf[:n]))

	b.SetReadDeadline(time.Now().Add(time.Second))
	n, _, err = b.ReadFrom(buf)
	require.Nil(t, err)
	assert.Equal(t, parity.RspOdd+"\n", string(buf[:n]))
}

func TestUDPServiceDropsMalformed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, _ := startUDPService(t, ctx)

	c, err := parity.DialUDP("udp", addr, 200*time.Millisecond)
	require.Nil(t, err)
	defer c.Close()

	_, err = c.SendBytes([]byte{0xc3, 0x28})
	assert.True(t, errors.Is(err, parity.ErrTimeout))

	// The service is still there.
	rsp, err := c.Send("8")
	require.Nil(t, err)
	assert.Equal(t, parity.RspEven, rsp)
}

func TestUDPServiceOversizedDatagram(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, _ := startUDPService(t, ctx)

	c, err := parity.DialUDP("udp", addr, time.Second)
	require.Nil(t, err)
	defer c.Close()

	rsp, err := c.Send(strings.Repeat("9", parity.BufferSize))
	require.Nil(t, err)
	assert.Equal(t, parity.RspOdd, rsp)

	// Truncated to BufferSize digits, still a number.
	rsp, err = c.SendBytes([]byte(strings.Repeat("2", 2*parity.BufferSize)))
	require.Nil(t, err)
	assert.Equal(t, parity.RspEven, rsp)
}

func TestUDPServiceInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, errCh := startUDPService(t, ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	assert.Nil(t, waitServe(t, errCh))
}

func TestUDPServiceReusePort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, _ := startUDPService(t, ctx, parity.WithReusePort(true))

	// A second socket may bind the same port.
	conn, err := parity.ListenUDP("udp", addr, parity.WithReusePort(true))
	require.Nil(t, err)
	conn.Close()
}

func TestUDPServiceServeTwice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn, err := parity.ListenUDP("udp", getTestAddr())
	require.Nil(t, err)
	s, err := parity.NewUDPService(conn, parity.WithLogger(log.Nop))
	require.Nil(t, err)
	go s.Serve(ctx)
	time.Sleep(10 * time.Millisecond)
	assert.NotNil(t, s.Serve(ctx))
}

// refusingPacketConn receives normally but fails every reply.
type refusingPacketConn struct {
	net.PacketConn
}

func (c *refusingPacketConn) WriteTo([]byte, net.Addr) (int, error) {
	return 0, errors.New("write refused")
}

func TestUDPServiceStopWinsOverFailedSend(t *testing.T) {
	conn, err := parity.ListenUDP("udp", getTestAddr())
	require.Nil(t, err)
	s, err := parity.NewUDPService(&refusingPacketConn{PacketConn: conn}, parity.WithLogger(log.Nop))
	require.Nil(t, err)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(context.Background())
	}()
	fails := metrics.Get(metrics.UDPSendFails)

	c, err := net.Dial("udp", conn.LocalAddr().String())
	require.Nil(t, err)
	defer c.Close()
	_, err = c.Write([]byte("5"))
	require.Nil(t, err)
	_, err = c.Write([]byte("stop"))
	require.Nil(t, err)

	assert.Nil(t, waitServe(t, errCh))
	assert.Equal(t, fails+2, metrics.Get(metrics.UDPSendFails))
}
