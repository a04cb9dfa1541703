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

// Package log provides logging utilities for parity services.
//
// Services never log through a package global: a Logger is handed to them
// with parity.WithLogger, and Default is only the value used when none is given.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Default borrows logging utilities from zap.
// The default log level is info level.
// The default output is standard output.
var Default Logger = newSugared(zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

// Nop discards everything, handy for tests.
var Nop Logger = zap.NewNop().Sugar()

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	NameKey:        "name",
	CallerKey:      "caller",
	MessageKey:     "message",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// Logger provides a unified logging interface.
type Logger interface {
	// Debug logs to DEBUG log. Arguments are handled in the manner of fmt.Print.
	Debug(args ...any)
	// Debugf logs to DEBUG log. Arguments are handled in the manner of fmt.Printf.
	Debugf(format string, args ...any)
	// Info logs to INFO log. Arguments are handled in the manner of fmt.Print.
	Info(args ...any)
	// Infof logs to INFO log. Arguments are handled in the manner of fmt.Printf.
	Infof(format string, args ...any)
	// Warn logs to WARNING log. Arguments are handled in the manner of fmt.Print.
	Warn(args ...any)
	// Warnf logs to WARNING log. Arguments are handled in the manner of fmt.Printf.
	Warnf(format string, args ...any)
	// Error logs to ERROR log. Arguments are handled in the manner of fmt.Print.
	Error(args ...any)
	// Errorf logs to ERROR log. Arguments are handled in the manner of fmt.Printf.
	Errorf(format string, args ...any)
}

// New creates a zap backed Logger writing to w at the given level.
// Accepted levels are debug, info, warn and error; empty means info.
func New(level string, w io.Writer) (Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return newSugared(zapcore.AddSync(w), lvl), nil
}

// Open resolves an output name from configuration ("stdout", "stderr" or a
// file path) and builds a Logger on top of it. The returned close function
// flushes the logger and closes the file it opened, if any.
func Open(level, output string) (Logger, func() error, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	var (
		f     *os.File
		owned bool
	)
	switch output {
	case "", "stdout":
		f = os.Stdout
	case "stderr":
		f = os.Stderr
	default:
		f, err = os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open log file %s", output)
		}
		owned = true
	}
	l := newSugared(zapcore.AddSync(f), lvl)
	closeFn := func() error {
		// Syncing a terminal fails with EINVAL, only owned files are checked.
		err := l.Sync()
		if !owned {
			return nil
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return errors.Wrapf(err, "close log file %s", output)
	}
	return l, closeFn, nil
}

// ParseLevel maps a configuration level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, errors.Errorf("unknown log level %q", level)
	}
}

func newSugared(ws zapcore.WriteSyncer, lvl zapcore.Level) *zap.SugaredLogger {
	return zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			ws,
			zap.NewAtomicLevelAt(lvl),
		),
		zap.AddCaller(),
	).Sugar()
}
