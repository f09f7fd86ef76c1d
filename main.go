// gossl - a TLS client adapter with bounded session caching.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gossl/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gossl: %v\n", err)
		os.Exit(1)
	}
}
