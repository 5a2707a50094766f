package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/founderflow-backend/internal/cli"
	"github.com/yungbote/founderflow-backend/internal/platform/shutdown"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ffctl: %v\n", err)
		stop()
		os.Exit(1)
	}
}
