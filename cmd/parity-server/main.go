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

// Package main is the parity server. It serves TCP or UDP on one port until a
// client sends "stop" or the process is interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"trpc.group/trpc-go/parity"
	"trpc.group/trpc-go/parity/config"
	"trpc.group/trpc-go/parity/log"
	"trpc.group/trpc-go/parity/metrics"
)

var (
	configPath = flag.String("config", "", "path to a YAML configuration file")
	network    = flag.String("network", "", "tcp or udp, overrides the configuration file")
	port       = flag.Int("port", 0, "port to listen on, prompted for when unset")
	logLevel   = flag.String("log-level", "", "debug, info, warn or error")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if *network != "" {
		cfg.Server.Network = *network
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, closeLog, err := log.Open(cfg.Log.Level, cfg.Log.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush logger: %v\n", err)
		}
	}()

	if cfg.Server.Port == 0 {
		p, err := config.NewPrompter(os.Stdin, os.Stdout).Port(0)
		if err != nil {
			logger.Errorf("no port given: %v", err)
			return 1
		}
		cfg.Server.Port = p
	}
	if err := cfg.Validate(); err != nil {
		logger.Errorf("invalid configuration: %v", err)
		return 1
	}

	opts := []parity.Option{
		parity.WithLogger(logger),
		parity.WithBufferSize(cfg.Server.BufferSize),
		parity.WithBacklog(cfg.Server.Backlog),
		parity.WithReusePort(cfg.Server.ReusePort),
	}
	s, err := newService(cfg.Server, opts)
	if err != nil {
		logger.Errorf("failed to start server on port %d: %v", cfg.Server.Port, err)
		return 1
	}

	if cfg.Metrics.Address != "" {
		srv := serveMetrics(cfg.Metrics.Address, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := s.Serve(ctx); err != nil {
		logger.Errorf("server error: %v", err)
		return 1
	}
	metrics.ShowMetrics(logger)
	logger.Info("server stopped")
	return 0
}

func newService(cfg config.ServerConfig, opts []parity.Option) (parity.Service, error) {
	addr := parity.WildcardAddress(cfg.Port)
	if strings.HasPrefix(cfg.Network, "udp") {
		conn, err := parity.ListenUDP(cfg.Network, addr, opts...)
		if err != nil {
			return nil, err
		}
		return parity.NewUDPService(conn, opts...)
	}
	ln, err := parity.ListenTCP(cfg.Network, addr, opts...)
	if err != nil {
		return nil, err
	}
	return parity.NewTCPService(ln, opts...)
}

func serveMetrics(addr string, logger log.Logger) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		metrics.NewCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("metrics available on http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server error: %v", err)
		}
	}()
	return srv
}
