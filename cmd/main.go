package main

import (
	"flag"
	"os"
	"strings"

	"smartguard/internal/config"
	"smartguard/internal/engine"
	"smartguard/pkg/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	targetPathsRaw := flag.String("path", "", "Comma-separated files or directories to scan (required)")
	exclusionsRaw := flag.String("exclude", "", "Comma-separated files or directories to exclude")
	outputFormat := flag.String("format", "", "Output format (console, json). Overrides config file.")
	reportPath := flag.String("output", "", "Path to save report file (for json format)")

	flag.Parse()

	if *targetPathsRaw == "" {
		logging.ErrorLogger.Println("Error: -path argument is required.")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logging.ErrorLogger.Fatalf("Failed to load configuration: %v", err)
	}

	if *outputFormat != "" {
		cfg.Output.Format = *outputFormat
	}

	// CLI scans run the baseline ML layer; the trained ensemble is only
	// wired up by the server, which controls its training data.
	scanEngine, err := engine.NewEngine(cfg, nil)
	if err != nil {
		logging.ErrorLogger.Fatalf("Failed to initialize engine: %v", err)
	}

	paths := strings.Split(*targetPathsRaw, ",")
	exclusions := []string{}
	if *exclusionsRaw != "" {
		exclusions = strings.Split(*exclusionsRaw, ",")
	}
	for i := range paths {
		paths[i] = strings.TrimSpace(paths[i])
	}
	for i := range exclusions {
		exclusions[i] = strings.TrimSpace(exclusions[i])
	}

	task := &engine.Task{
		Paths:      paths,
		Exclusions: exclusions,
		ReportPath: *reportPath,
	}

	if err := scanEngine.Scan(task); err != nil {
		logging.ErrorLogger.Fatalf("Scan failed: %v", err)
	}

	logging.InfoLogger.Println("Scan completed successfully.")
}
