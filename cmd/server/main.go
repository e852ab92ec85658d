package main

import (
	"context"
	"log"
	"os"

	"github.com/sazinconstruction/adminkeeper/internal/server"
	"github.com/sazinconstruction/adminkeeper/internal/server/config"
)

var buildVersion = "N/A"

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Printf("config: %v", err)
		os.Exit(1)
	}

	app, err := server.NewApp(ctx, cfg, buildVersion)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	app.Run(ctx)

}
