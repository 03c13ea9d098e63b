package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"smartguard/internal/reporting"
	"smartguard/pkg/logging"
	"smartguard/pkg/types"
)

// maxScanSize caps per-file reads during batch scans.
const maxScanSize = 10 * 1024 * 1024

// Task describes a batch scan request.
type Task struct {
	Paths      []string // files or directories to scan
	Exclusions []string // files or directories to skip
	ReportPath string   // report destination from -output
}

// Scan walks the task's paths, scans every file through a worker pool and
// generates the configured report.
func (e *Engine) Scan(task *Task) error {
	verdicts, err := e.ScanPaths(task)
	if err != nil {
		return err
	}
	return e.generateReport(verdicts, task)
}

// ScanPaths scans the task's files concurrently and returns the verdicts.
// Individual file failures are logged and skipped, not fatal.
func (e *Engine) ScanPaths(task *Task) ([]*types.ScanVerdict, error) {
	filesToScan, err := findFiles(task.Paths, task.Exclusions)
	if err != nil {
		return nil, fmt.Errorf("finding files to scan: %w", err)
	}
	if len(filesToScan) == 0 {
		logging.InfoLogger.Println("No files found to scan.")
		return nil, nil
	}

	var wg sync.WaitGroup
	resultChan := make(chan *types.ScanVerdict, len(filesToScan))

	concurrency := e.config.Performance.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	sem := make(chan struct{}, concurrency)

	startTime := time.Now()

	for _, filePath := range filesToScan {
		info, statErr := os.Stat(filePath)
		if statErr != nil {
			logging.WarnLogger.Printf("Skipping file %s: %v", filePath, statErr)
			continue
		}
		if info.Size() > maxScanSize {
			logging.WarnLogger.Printf("Skipping file %s: exceeds size limit (%d > %d bytes)", filePath, info.Size(), maxScanSize)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			content, readErr := os.ReadFile(fp)
			if readErr != nil {
				logging.ErrorLogger.Printf("Error reading file %s: %v", fp, readErr)
				return
			}

			verdict := e.ScanFile(content, filepath.Base(fp))
			verdict.Filename = fp
			resultChan <- verdict
		}(filePath)
	}

	wg.Wait()
	close(resultChan)

	verdicts := make([]*types.ScanVerdict, 0, len(filesToScan))
	for v := range resultChan {
		verdicts = append(verdicts, v)
	}

	logging.InfoLogger.Printf("Scanning finished in %s (%d files)", time.Since(startTime), len(verdicts))
	return verdicts, nil
}

// generateReport picks a reporter from the output path extension, falling
// back to the configured default format.
func (e *Engine) generateReport(verdicts []*types.ScanVerdict, task *Task) error {
	var reporter reporting.Reporter = reporting.NewConsoleReporter()
	outputFormat := strings.ToLower(e.config.Output.Format)
	outputPath := ""

	if task.ReportPath != "" {
		outputPath = task.ReportPath
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".json":
			outputFormat = "json"
			reporter = reporting.NewJSONReporter()
		case ".txt", "":
			outputFormat = "console"
			reporter = reporting.NewConsoleReporter()
			outputPath = ""
		default:
			logging.WarnLogger.Printf("Unsupported output extension for path %s, using '%s' reporter.", outputPath, outputFormat)
			if outputFormat == "json" {
				reporter = reporting.NewJSONReporter()
			} else {
				outputPath = ""
			}
		}
	} else if outputFormat == "json" {
		reporter = reporting.NewJSONReporter()
	}

	logging.InfoLogger.Printf("Generating '%s' report...", outputFormat)
	if err := reporter.Generate(verdicts, outputPath); err != nil {
		logging.ErrorLogger.Printf("Failed to generate %s report: %v", outputFormat, err)
		return fmt.Errorf("failed to generate %s report: %w", outputFormat, err)
	}

	if outputPath != "" {
		fmt.Printf("Report generated: %s\n", outputPath)
	}
	return nil
}

// findFiles resolves the target paths into a deduplicated list of regular
// files, honoring exclusions.
func findFiles(paths []string, exclusions []string) ([]string, error) {
	var files []string
	exclusionSet := make(map[string]bool)
	for _, ex := range exclusions {
		absEx, err := filepath.Abs(ex)
		if err != nil {
			logging.WarnLogger.Printf("Could not get absolute path for exclusion '%s': %v", ex, err)
			exclusionSet[filepath.Clean(ex)] = true
			continue
		}
		exclusionSet[filepath.Clean(absEx)] = true
	}

	processed := make(map[string]bool)

	for _, p := range paths {
		absP, err := filepath.Abs(p)
		if err != nil {
			logging.WarnLogger.Printf("Could not get absolute path for target '%s': %v. Skipping.", p, err)
			continue
		}
		cleanPath := filepath.Clean(absP)
		if processed[cleanPath] || exclusionSet[cleanPath] {
			processed[cleanPath] = true
			continue
		}

		info, err := os.Stat(cleanPath)
		if err != nil {
			logging.WarnLogger.Printf("Skipping path %s: %v", p, err)
			processed[cleanPath] = true
			continue
		}

		if !info.IsDir() {
			files = append(files, cleanPath)
			processed[cleanPath] = true
			continue
		}

		walkErr := filepath.Walk(cleanPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				logging.WarnLogger.Printf("Error accessing path %s during walk: %v", path, err)
				return nil
			}
			absWalk, absErr := filepath.Abs(path)
			if absErr != nil {
				return nil
			}
			cleanWalk := filepath.Clean(absWalk)

			if exclusionSet[cleanWalk] {
				processed[cleanWalk] = true
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if info.IsDir() {
				processed[cleanWalk] = true
				return nil
			}
			if !info.Mode().IsRegular() || processed[cleanWalk] {
				return nil
			}
			files = append(files, cleanWalk)
			processed[cleanWalk] = true
			return nil
		})
		if walkErr != nil {
			logging.ErrorLogger.Printf("Error walking directory %s: %v", cleanPath, walkErr)
		}
		processed[cleanPath] = true
	}

	logging.InfoLogger.Printf("Found %d unique files to scan.", len(files))
	return files, nil
}
