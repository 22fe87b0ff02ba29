package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	_ "github.com/joho/godotenv/autoload"

	"merchant-onboarding/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand(cli.EnvOpener, cli.EnvConnector).ExecuteContext(ctx); err != nil {
		log.Printf("❌ %v", err)
		return 1
	}
	return 0
}
