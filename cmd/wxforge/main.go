package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/wxforge/wxforge/internal/app"
	"github.com/wxforge/wxforge/internal/log"
	"github.com/wxforge/wxforge/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "wxforge.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("wxforge %s\n", version)
		os.Exit(0)
	}

	// Optional .env for vendor credentials kept out of the YAML file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Failed to load .env: %v\n", err)
	}

	filename, _ := filepath.Abs(*cfgFile)
	provider := config.NewYAMLProvider(filename)

	cfg, err := provider.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration %s: %v\n", filename, err)
		os.Exit(1)
	}

	if err := log.Init(*debug, cfg.LogFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	application := app.New(provider, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("application error: %v", err)
		os.Exit(1)
	}
}
