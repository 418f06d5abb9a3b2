package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/chirper/internal/buildinfo"
	"github.com/dmitrijs2005/chirper/internal/client/cli"
	"github.com/dmitrijs2005/chirper/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
