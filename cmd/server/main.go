package main

import (
	"context"
	"log"
	"os"

	"github.com/taxintake/intakeengine/internal/server"
	"github.com/taxintake/intakeengine/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := cfg.PromptPIIKey(os.Stderr); err != nil {
		log.Fatalf("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
