package main

import (
	"context"
	"fmt"
	"os"

	"tour-importer/config"
	"tour-importer/pipeline"
)

func main() {
	config.InitApp()
	config.InitLogger()
	cfg := config.GetConfig()

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <listing-url>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "imports one %s listing into the content store\n", cfg.Source.Platform)
		os.Exit(1)
	}

	if err := cfg.ValidateCredentials(); err != nil {
		config.Logger.Errorf("startup: %v", err)
		os.Exit(1)
	}

	if err := pipeline.Run(context.Background(), os.Args[1], cfg); err != nil {
		os.Exit(1)
	}
}
