package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oakwood-commons/cmtui/cmd"
	"github.com/oakwood-commons/cmtui/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Report(os.Stderr, cmd.Execute(ctx))
	stop()

	logger.Sync()
	if code != cmd.ExitOK {
		os.Exit(code)
	}
}
