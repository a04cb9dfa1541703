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

// Package main is the interactive parity client.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"trpc.group/trpc-go/parity"
	"trpc.group/trpc-go/parity/config"
)

const defaultIP = "127.0.0.1"

const usage = `
Enter a number to check if it's even or odd.
Enter 'stop' to shut down the server and client.
Press Ctrl+C to exit the client.
`

var network = flag.String("network", "tcp", "tcp or udp")

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompter := config.NewPrompter(interruptible(ctx, os.Stdin), os.Stdout)
	ip, err := prompter.IPv4(defaultIP)
	if err != nil {
		fmt.Println("\nClient setup cancelled.")
		return
	}
	port, err := prompter.Port(config.DefaultPort)
	if err != nil {
		fmt.Println("\nClient setup cancelled.")
		return
	}

	addr := net.JoinHostPort(ip, strconv.Itoa(port))
	fmt.Printf("Connecting to server at %s over %s...\n", addr, *network)
	c, err := parity.Dial(*network, addr, parity.DefaultTimeout)
	if err != nil {
		fmt.Println("Connection timeout: server is not reachable. The client will now exit.")
		return
	}
	defer c.Close()
	fmt.Println("Successfully connected to server.")
	fmt.Print(usage)

	for {
		msg, err := prompter.Line("Enter a number: ")
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println("\nStopping client...")
			}
			return
		}
		if msg == "" {
			continue
		}
		rsp, err := c.Send(msg)
		switch {
		case errors.Is(err, parity.ErrMessageTooLong):
			fmt.Printf("Message length: %d, max allowed: %d.\n", len(msg), parity.BufferSize)
			fmt.Println("Your input was too long. Please try again.")
			continue
		case errors.Is(err, parity.ErrTimeout):
			fmt.Printf("Server did not respond within %s. Server may be busy.\n\n", parity.DefaultTimeout)
			continue
		case errors.Is(err, parity.ErrServerClosed):
			fmt.Println("Server closed the connection.")
			return
		case err != nil:
			fmt.Printf("Network error occurred: %v\n\n", err)
			return
		}
		fmt.Println(rsp)
		if strings.ToLower(msg) == parity.StopCommand {
			fmt.Println("The server has stopped. The client will also stop running.")
			return
		}
	}
}

// interruptible forwards r until ctx is done. A read from a terminal cannot be
// cancelled, so the copy runs on its own goroutine and is abandoned on exit.
func interruptible(ctx context.Context, r io.Reader) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		_, err := io.Copy(pw, r)
		pw.CloseWithError(err)
	}()
	go func() {
		<-ctx.Done()
		pw.CloseWithError(ctx.Err())
	}()
	return pr
}
