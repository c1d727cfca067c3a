package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"inquiry_desk/internal/cli"
	"inquiry_desk/platform/apperr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		msg := err.Error()
		if apperr.GetKind(err) != apperr.KindUnknown {
			msg = apperr.Message(err)
		}
		fmt.Fprintln(os.Stderr, "error:", msg)
		stop()
		os.Exit(1)
	}
}
