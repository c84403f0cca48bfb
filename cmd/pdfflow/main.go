package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/r0ks0n/pdfflow"
	"github.com/r0ks0n/pdfflow/internal/logging"
)

func main() {
	var (
		templateFile string
		dataFile     string
		flowField    string
		outputFile   string
		fontDirs     string
		verbose      bool
	)

	flag.StringVar(&templateFile, "template", "", "Template JSON file path")
	flag.StringVar(&dataFile, "data", "", "Input data JSON file path")
	flag.StringVar(&flowField, "flow", "", "Name of the flowed text field (default \"content\")")
	flag.StringVar(&outputFile, "out", "", "Output PDF file path")
	flag.StringVar(&fontDirs, "fonts", "", "Comma-separated font directories")
	flag.BoolVar(&verbose, "v", false, "Enable verbose logging")
	flag.Parse()

	if templateFile == "" {
		fmt.Println("Error: template file is required")
		flag.Usage()
		os.Exit(1)
	}

	if outputFile == "" {
		ext := filepath.Ext(templateFile)
		outputFile = templateFile[:len(templateFile)-len(ext)] + ".pdf"
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	options := pdfflow.DefaultOptions()
	if flowField != "" {
		options.FlowField = flowField
	}
	options.Debug = verbose
	for _, dir := range strings.Split(fontDirs, ",") {
		if dir = strings.TrimSpace(dir); dir != "" {
			options.FontDirectories = append(options.FontDirectories, dir)
		}
	}

	generator := pdfflow.NewWithOptions(options)
	if err := generator.GenerateFromFiles(context.Background(), templateFile, dataFile, outputFile); err != nil {
		fmt.Printf("Error generating document: %v\n", err)
		os.Exit(1)
	}

	summary := outputFile
	if data, err := os.ReadFile(outputFile); err == nil {
		if pages, err := pdfflow.PageCount(data); err == nil {
			summary = fmt.Sprintf("%s (%d pages)", outputFile, pages)
		}
	}
	fmt.Printf("Wrote %s\n", summary)
}
