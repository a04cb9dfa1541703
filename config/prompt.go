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

package config

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoInput is returned when the input ends before a valid value was read.
var ErrNoInput = errors.New("no more input")

// Prompter asks for values on out and reads answers line by line from in,
// repeating the question until the answer is valid.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter creates a Prompter.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Line prints prompt and returns the next trimmed line.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", errors.Wrap(err, "read input")
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Port asks for a port until a valid one is given. If def is non-zero an
// empty answer selects it.
func (p *Prompter) Port(def int) (int, error) {
	prompt := "Enter your server port: "
	if def != 0 {
		prompt = fmt.Sprintf("Enter server port (default: %d): ", def)
	}
	for {
		line, err := p.Line(prompt)
		if err != nil {
			return 0, err
		}
		if line == "" && def != 0 {
			return def, nil
		}
		port, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(p.out, "\nInvalid input. Enter a numeric value for the port number.")
			continue
		}
		if ValidatePort(port) != nil {
			fmt.Fprintf(p.out, "\nEnter a valid port number between %d and %d.\n", MinPort, MaxPort)
			continue
		}
		return port, nil
	}
}

// IPv4 asks for an IPv4 address until a valid one is given. An empty answer
// selects def.
func (p *Prompter) IPv4(def string) (string, error) {
	for {
		line, err := p.Line(fmt.Sprintf("Enter server IPv4 address (default: %s): ", def))
		if err != nil {
			return "", err
		}
		if line == "" {
			return def, nil
		}
		if ip := net.ParseIP(line); ip != nil && ip.To4() != nil && !strings.Contains(line, ":") {
			return ip.To4().String(), nil
		}
		fmt.Fprintln(p.out, "\nEnter a valid IPv4 address.")
	}
}
