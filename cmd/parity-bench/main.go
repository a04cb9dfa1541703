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

// Package main runs many parity clients at once against one server and checks
// every answer. Clients run on an ants goroutine pool.
//
// A tcp server serves one connection at a time, so against tcp keep -workers
// small or raise -timeout.
package main

import (
	"flag"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"
	"trpc.group/trpc-go/parity"
	"trpc.group/trpc-go/parity/log"
)

var (
	network  = flag.String("network", "udp", "tcp or udp")
	address  = flag.String("addr", "127.0.0.1:25535", "server address")
	clients  = flag.Int("clients", 16, "number of clients")
	requests = flag.Int("requests", 100, "requests sent by each client")
	workers  = flag.Int("workers", 4, "clients running at the same time")
	timeout  = flag.Duration("timeout", parity.DefaultTimeout, "response timeout")
)

type stats struct {
	ok       atomic.Uint64
	mismatch atomic.Uint64
	failed   atomic.Uint64
}

func main() {
	flag.Parse()
	logger := log.Default

	pool, err := ants.NewPool(*workers)
	if err != nil {
		logger.Errorf("create pool: %v", err)
		os.Exit(1)
	}
	defer pool.Release()

	var (
		st    stats
		wg    sync.WaitGroup
		start = time.Now()
	)
	for i := 0; i < *clients; i++ {
		seed := int64(i)
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			runClient(logger, seed, &st)
		}); err != nil {
			wg.Done()
			logger.Errorf("submit client %d: %v", i, err)
		}
	}
	wg.Wait()

	elapsed := time.Since(start)
	total := st.ok.Load() + st.mismatch.Load() + st.failed.Load()
	logger.Infof("%d requests in %s (%.0f req/s): %d ok, %d wrong answers, %d failed",
		total, elapsed, float64(total)/elapsed.Seconds(), st.ok.Load(), st.mismatch.Load(), st.failed.Load())
	if st.mismatch.Load() > 0 || st.failed.Load() > 0 {
		os.Exit(1)
	}
}

func runClient(logger log.Logger, seed int64, st *stats) {
	c, err := parity.Dial(*network, *address, *timeout)
	if err != nil {
		logger.Warnf("client %d: %v", seed, err)
		st.failed.Add(uint64(*requests))
		return
	}
	defer c.Close()

	r := rand.New(rand.NewSource(seed))
	for i := 0; i < *requests; i++ {
		n := r.Int63n(1<<40) - 1<<39
		rsp, err := c.Send(strconv.FormatInt(n, 10))
		if err != nil {
			logger.Warnf("client %d request %d: %v", seed, i, err)
			st.failed.Inc()
			continue
		}
		want := parity.RspEven
		if n%2 != 0 {
			want = parity.RspOdd
		}
		if rsp != want {
			logger.Warnf("client %d: %d answered %q", seed, n, rsp)
			st.mismatch.Inc()
			continue
		}
		st.ok.Inc()
	}
}
