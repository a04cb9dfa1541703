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

// Package metrics provides parity runtime counters: connections, datagrams,
// send failures and how many messages fell into each classification.
package metrics

import (
	"time"

	"go.uber.org/atomic"
	"trpc.group/trpc-go/parity/log"
)

// All metrics definitions.
const (
	// The following constants are TCP metrics.

	TCPConnsAccepted = iota
	TCPConnsClosed
	TCPReadBytes
	TCPSendFails
	TCPPeerResets

	// The following constants are UDP metrics.

	UDPDatagramsReceived
	UDPDatagramsDropped
	UDPSendFails

	// The following constants are message classification metrics.

	MessagesEven
	MessagesOdd
	MessagesNotANumber
	MessagesMalformed
	ShutdownRequests

	// Keep it last.

	Max
)

var names = [Max]string{
	TCPConnsAccepted:     "tcp_conns_accepted",
	TCPConnsClosed:       "tcp_conns_closed",
	TCPReadBytes:         "tcp_read_bytes",
	TCPSendFails:         "tcp_send_fails",
	TCPPeerResets:        "tcp_peer_resets",
	UDPDatagramsReceived: "udp_datagrams_received",
	UDPDatagramsDropped:  "udp_datagrams_dropped",
	UDPSendFails:         "udp_send_fails",
	MessagesEven:         "messages_even",
	MessagesOdd:          "messages_odd",
	MessagesNotANumber:   "messages_not_a_number",
	MessagesMalformed:    "messages_malformed",
	ShutdownRequests:     "shutdown_requests",
}

var (
	metrics [Max]atomic.Uint64
)

// Name returns the snake_case name of a metric, or "" if out of range.
func Name(name int) string {
	if name < 0 || name >= Max {
		return ""
	}
	return names[name]
}

// Add metrics counter.
func Add(name int, delta uint64) {
	if name < 0 || name >= Max {
		return
	}
	metrics[name].Add(delta)
}

// Get one metric counter.
func Get(name int) uint64 {
	if name < 0 || name >= Max {
		return 0
	}
	return metrics[name].Load()
}

// GetAll get all metrics.
func GetAll() [Max]uint64 {
	var m [Max]uint64
	for i := range metrics {
		m[i] = metrics[i].Load()
	}
	return m
}

// ShowMetrics writes all counters to l at debug level.
func ShowMetrics(l log.Logger) {
	showAll(l, GetAll())
}

// ShowMetricsOfPeriod shows metric info of duration d from now on.
// It will block d duration, and then prints metrics info.
func ShowMetricsOfPeriod(l log.Logger, d time.Duration) {
	old := GetAll()
	<-time.After(d)
	cur := GetAll()
	var m [Max]uint64
	for i := range metrics {
		m[i] = cur[i] - old[i]
	}
	showAll(l, m)
}

func showAll(l log.Logger, m [Max]uint64) {
	l.Debug("######### parity metrics (", time.Now().Format("2006-01-02 15:04:05"), ") ###########")
	l.Debugf("%-45s: %d", "# TCP - connections accepted", m[TCPConnsAccepted])
	l.Debugf("%-45s: %d", "# TCP - connections closed", m[TCPConnsClosed])
	l.Debugf("%-45s: %dB", "# TCP - bytes read", m[TCPReadBytes])
	l.Debugf("%-45s: %d", "# TCP - failed sends", m[TCPSendFails])
	l.Debugf("%-45s: %d", "# TCP - connections reset by peer", m[TCPPeerResets])
	l.Debugf("%-45s: %d", "# UDP - datagrams received", m[UDPDatagramsReceived])
	l.Debugf("%-45s: %d", "# UDP - datagrams dropped (malformed)", m[UDPDatagramsDropped])
	l.Debugf("%-45s: %d", "# UDP - failed sends", m[UDPSendFails])
	total := m[MessagesEven] + m[MessagesOdd] + m[MessagesNotANumber]
	l.Debugf("%-45s: %d", "# MSG - even", m[MessagesEven])
	l.Debugf("%-45s: %d", "# MSG - odd", m[MessagesOdd])
	l.Debugf("%-45s: %d", "# MSG - not a number", m[MessagesNotANumber])
	l.Debugf("%-45s: %d", "# MSG - malformed", m[MessagesMalformed])
	if total > 0 {
		l.Debugf("%-45s: %.2f%%", "# MSG - invalid ratio",
			float64(m[MessagesNotANumber])*100/float64(total))
	}
	l.Debugf("%-45s: %d", "# MSG - shutdown requests", m[ShutdownRequests])
}
