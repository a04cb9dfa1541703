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

package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/parity/log"
	"trpc.group/trpc-go/parity/metrics"
)

func TestAddGet(t *testing.T) {
	before := metrics.Get(metrics.MessagesOdd)
	metrics.Add(metrics.MessagesOdd, 3)
	assert.Equal(t, before+3, metrics.Get(metrics.MessagesOdd))
	assert.Equal(t, before+3, metrics.GetAll()[metrics.MessagesOdd])

	// Out of range names are ignored.
	metrics.Add(metrics.Max, 1)
	metrics.Add(-1, 1)
	assert.Equal(t, uint64(0), metrics.Get(metrics.Max))
	assert.Equal(t, "", metrics.Name(metrics.Max))
}

func TestNames(t *testing.T) {
	for i := 0; i < metrics.Max; i++ {
		assert.NotEmpty(t, metrics.Name(i), "metric %d has no name", i)
	}
}

func TestShowMetrics(t *testing.T) {
	metrics.Add(metrics.MessagesEven, 1)
	metrics.ShowMetrics(log.Nop)
	metrics.ShowMetricsOfPeriod(log.Nop, time.Millisecond)
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.Nil(t, reg.Register(metrics.NewCollector()))
	metrics.Add(metrics.ShutdownRequests, 1)

	families, err := reg.Gather()
	require.Nil(t, err)
	assert.Len(t, families, metrics.Max)

	var found bool
	for _, f := range families {
		if f.GetName() == "parity_shutdown_requests_total" {
			found = true
			assert.GreaterOrEqual(t, f.GetMetric()[0].GetCounter().GetValue(), float64(1))
		}
	}
	assert.True(t, found)
}
