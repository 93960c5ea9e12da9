package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/zyntracker/internal/config"
	"github.com/dmitrijs2005/zyntracker/internal/server"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		// the config loader panics on bad flags or an unreadable file
		if r := recover(); r != nil {
			log.Printf("config error: %v", r)
			code = 2
		}
	}()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
		return 1
	}
	return 0
}
