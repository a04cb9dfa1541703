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

package log_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"trpc.group/trpc-go/parity/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := log.ParseLevel(in)
		assert.Nil(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := log.ParseLevel("loud")
	assert.NotNil(t, err)
}

func TestNewFiltersByLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := log.New("warn", buf)
	require.Nil(t, err)

	l.Infof("hidden %d", 1)
	assert.Equal(t, 0, buf.Len())

	l.Warnf("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "WARN")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parity.log")
	l, closeFn, err := log.Open("info", path)
	require.Nil(t, err)
	l.Info("to file")
	l.Debug("filtered")
	require.Nil(t, closeFn())

	b, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Contains(t, string(b), "to file")
	assert.NotContains(t, string(b), "filtered")

	_, _, err = log.Open("info", filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.NotNil(t, err)
	_, _, err = log.Open("loud", path)
	assert.NotNil(t, err)
}

func TestOpenStdout(t *testing.T) {
	l, closeFn, err := log.Open("", "stdout")
	require.Nil(t, err)
	l.Info("to stdout")
	assert.Nil(t, closeFn())
}
