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
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"trpc.group/trpc-go/parity/metrics"
)

// ErrMalformedToken is returned by Decode when a token is not valid UTF-8.
var ErrMalformedToken = errors.New("token is not valid utf-8")

// StopCommand is the request that shuts the server down. Compared case-insensitively.
const StopCommand = "stop"

// Response texts.
const (
	RspShutdown   = "The server has shut down."
	RspEven       = "The number you entered is even."
	RspOdd        = "The number you entered is odd."
	RspNotANumber = "You have not entered a number. Please try again."
	RspMalformed  = "Invalid message format. Please send a valid UTF-8 encoded string."
)

// Classification is the outcome of interpreting one token.
type Classification int

// All classifications.
const (
	Even Classification = iota
	Odd
	NotANumber
	ShutdownRequested
	Malformed
)

// String implements fmt.Stringer.
func (c Classification) String() string {
	switch c {
	case Even:
		return "even"
	case Odd:
		return "odd"
	case NotANumber:
		return "not-a-number"
	case ShutdownRequested:
		return "shutdown"
	case Malformed:
		return "malformed"
	default:
		return "invalid"
	}
}

// Action tells the server loop whether to keep serving.
type Action int

// All actions.
const (
	Continue Action = iota
	Shutdown
)

// String implements fmt.Stringer.
func (a Action) String() string {
	if a == Shutdown {
		return "shutdown"
	}
	return "continue"
}

// Result is what Process returns for one message.
type Result struct {
	Class    Classification
	Response string
	Action   Action
}

// Decode turns a raw token into a trimmed message.
// It returns ErrMalformedToken if the token is not valid UTF-8.
func Decode(token []byte) (string, error) {
	if !utf8.Valid(token) {
		return "", ErrMalformedToken
	}
	return strings.TrimSpace(string(token)), nil
}

// Process classifies a message and builds its response. It never fails and
// has no side effects, so equal inputs always give equal results.
//
// Integers have arbitrary precision; parity ignores the sign.
func Process(message string) Result {
	message = strings.TrimSpace(message)
	if strings.ToLower(message) == StopCommand {
		return Result{Class: ShutdownRequested, Response: RspShutdown, Action: Shutdown}
	}
	n, ok := new(big.Int).SetString(message, 10)
	if !ok {
		return Result{Class: NotANumber, Response: RspNotANumber}
	}
	// Bit works on the absolute value.
	if n.Bit(0) == 0 {
		return Result{Class: Even, Response: RspEven}
	}
	return Result{Class: Odd, Response: RspOdd}
}

// malformedResult is the result for a token Decode rejected.
var malformedResult = Result{Class: Malformed, Response: RspMalformed}

// encodeResponse frames a response for the wire.
func encodeResponse(rsp string) []byte {
	b := make([]byte, 0, len(rsp)+1)
	b = append(b, rsp...)
	return append(b, '\n')
}

func countResult(r Result) {
	switch r.Class {
	case Even:
		metrics.Add(metrics.MessagesEven, 1)
	case Odd:
		metrics.Add(metrics.MessagesOdd, 1)
	case NotANumber:
		metrics.Add(metrics.MessagesNotANumber, 1)
	case ShutdownRequested:
		metrics.Add(metrics.ShutdownRequests, 1)
	case Malformed:
		metrics.Add(metrics.MessagesMalformed, 1)
	}
}
