package main

import (
	"context"
	"log"

	"github.com/mixcore/sdk-go/internal/cli"
	"github.com/mixcore/sdk-go/internal/cli/config"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
