// Command geoctl runs the report classifiers and renderers over local files,
// for checking how an answer will be scored without queueing a job.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "geoctl: %v\n", err)
		os.Exit(1)
	}
}
