package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

func main() {
	log.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		log.Errorf("%v", err)
	}
	log.Sync()
	os.Exit(types.ExitCode(err))
}
