package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/r0ks0n/pdfflow/internal/logging"
	"github.com/r0ks0n/pdfflow/internal/server"
)

func main() {
	var (
		addr      string
		storeDir  string
		fontDirs  string
		flowField string
		maxConns  int
		verbose   bool
	)

	flag.StringVar(&addr, "addr", envOr("PDFFLOW_ADDR", ":8080"), "Listen address")
	flag.StringVar(&storeDir, "store", envOr("PDFFLOW_STORE", "templates"), "Template store directory")
	flag.StringVar(&fontDirs, "fonts", envOr("PDFFLOW_FONTS", ""), "Comma-separated font directories")
	flag.StringVar(&flowField, "flow", envOr("PDFFLOW_FLOW_FIELD", ""), "Name of the flowed text field")
	flag.IntVar(&maxConns, "max-conns", 0, "Maximum concurrent client connections (0 = unlimited)")
	flag.BoolVar(&verbose, "v", false, "Enable verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := server.Config{
		Addr:      addr,
		StoreDir:  storeDir,
		MaxConns:  maxConns,
		FlowField: flowField,
		Debug:     verbose,
	}
	for _, dir := range strings.Split(fontDirs, ",") {
		if dir = strings.TrimSpace(dir); dir != "" {
			cfg.FontDirs = append(cfg.FontDirs, dir)
		}
	}

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
