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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports the counters of this package to Prometheus.
// Every counter becomes "parity_<name>_total".
type Collector struct {
	descs [Max]*prometheus.Desc
}

// NewCollector creates a Collector. Register it with a prometheus.Registerer.
func NewCollector() *Collector {
	c := &Collector{}
	for i := 0; i < Max; i++ {
		c.descs[i] = prometheus.NewDesc(
			prometheus.BuildFQName("parity", "", Name(i)+"_total"),
			"parity counter "+Name(i),
			nil, nil,
		)
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := GetAll()
	for i, d := range c.descs {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(m[i]))
	}
}
