package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/yungbote/founderflow-backend/internal/app"
	"github.com/yungbote/founderflow-backend/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	err = a.Run(ctx)
	if cause := context.Cause(ctx); errors.Is(cause, shutdown.ErrSignaled) {
		a.Log.Info("shut down", "cause", cause.Error())
	}
	if err != nil {
		a.Log.Error("server exited", "error", err)
		stop()
		os.Exit(1)
	}
}
