package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/janpfeifer/GoPeaks/internal/server"
	"github.com/joho/godotenv"
	"k8s.io/klog/v2"
)

var (
	flagAddr   = flag.String("addr", "", "Address to listen on (default: $GOPEAKS_ADDR, or auto-port on localhost)")
	flagLevels = flag.String("levels", "", "Directory with level files (default: $GOPEAKS_LEVELS_DIR, or the built-in levels)")
)

func main() {
	klog.InitFlags(nil)
	// Log to the console by default; -logtostderr=false restores files.
	_ = flag.Set("logtostderr", "true")

	// A .env file is optional, just a convenience for development.
	if err := godotenv.Load(); err == nil {
		klog.Info("Loaded environment from .env")
	}

	var cfg server.Config
	if err := env.Parse(&cfg); err != nil {
		klog.Exitf("Failed to parse environment: %v", err)
	}
	if cfg.LogV != "" {
		_ = flag.Set("v", cfg.LogV)
	}

	// Flags parse last so the command line wins over the environment.
	flag.Parse()
	if *flagAddr != "" {
		cfg.Addr = *flagAddr
	}
	if *flagLevels != "" {
		cfg.LevelsDir = *flagLevels
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := make(chan *server.ServerState, 1)
	go func() {
		state := <-started
		fmt.Printf("GoPeaks server listening on http://%s\n", state.Address)
	}()

	if err := server.Run(ctx, cfg, started); err != nil {
		klog.Exitf("Server failed: %v", err)
	}
}
