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
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds how long a Client waits for a response.
const DefaultTimeout = 5 * time.Second

var (
	// ErrMessageTooLong is returned by Client.Send for messages over BufferSize bytes.
	ErrMessageTooLong = errors.New("message too long")
	// ErrServerClosed is returned when the server closed the tcp connection.
	ErrServerClosed = errors.New("server closed the connection")
	// ErrTimeout is returned when no response arrived within the client timeout.
	ErrTimeout = errors.New("server did not respond in time")
)

// Client sends requests to a parity server and waits for each response.
// It is not safe for concurrent use.
type Client struct {
	conn    net.Conn
	timeout time.Duration
	buf     []byte
}

// DialTCP connects to the address on the named network within the timeout.
// Valid networks for DialTCP are "tcp", "tcp4" (IPv4-only), "tcp6" (IPv6-only).
// The timeout also bounds every later wait for a response; zero means DefaultTimeout.
func DialTCP(network, address string, timeout time.Duration) (*Client, error) {
	switch network {
	case "tcp", "tcp4", "tcp6":
	default:
		return nil, fmt.Errorf("DialTCP: unknown network %s", network)
	}
	return dial(network, address, timeout)
}

// DialUDP creates a client sending datagrams to the address on the named network.
// Valid networks for DialUDP are "udp", "udp4" (IPv4-only), "udp6" (IPv6-only).
func DialUDP(network, address string, timeout time.Duration) (*Client, error) {
	switch network {
	case "udp", "udp4", "udp6":
	default:
		return nil, fmt.Errorf("DialUDP: unknown network %s", network)
	}
	return dial(network, address, timeout)
}

// Dial picks DialTCP or DialUDP by network.
func Dial(network, address string, timeout time.Duration) (*Client, error) {
	if strings.HasPrefix(network, "udp") {
		return DialUDP(network, address, timeout)
	}
	return DialTCP(network, address, timeout)
}

func dial(network, address string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c, err := net.DialTimeout(network, address, timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "dial network %s, address %s with timeout %+v error", network, address, timeout)
	}
	return &Client{
		conn:    c,
		timeout: timeout,
		buf:     make([]byte, BufferSize),
	}, nil
}

// Send trims msg, sends it and returns the server's response without the
// trailing newline. Messages over BufferSize bytes are refused locally.
func (c *Client) Send(msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	if len(msg) > BufferSize {
		return "", errors.Wrapf(ErrMessageTooLong, "message length: %d, max allowed: %d", len(msg), BufferSize)
	}
	return c.SendBytes([]byte(msg))
}

// SendBytes sends p unchanged. The size limit is not checked.
func (c *Client) SendBytes(p []byte) (string, error) {
	if _, err := c.conn.Write(p); err != nil {
		return "", errors.Wrap(err, "send request")
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", errors.Wrap(err, "set read deadline")
	}
	n, err := c.conn.Read(c.buf)
	if n > 0 {
		return strings.TrimRight(string(c.buf[:n]), "\n"), nil
	}
	var ne net.Error
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return "", ErrServerClosed
	case errors.As(err, &ne) && ne.Timeout():
		return "", errors.Wrapf(ErrTimeout, "no response within %s", c.timeout)
	default:
		return "", errors.Wrap(err, "receive response")
	}
}

// LocalAddr returns the client's local address.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
