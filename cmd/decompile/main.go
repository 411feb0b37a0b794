package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mdl-decompiler/internal/batch"
	"mdl-decompiler/internal/config"
	"mdl-decompiler/internal/logx"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	inputDir := flag.String("input", "", "Directory to scan for .mdl files (batch mode)")
	outputDir := flag.String("output", "", "Output directory (default: <input>/decompiled)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	previewFlag := flag.Bool("preview", false, "Also render a WebP preview per model")
	verbose := flag.Bool("v", false, "Print per-container info messages")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		InputDir:  *inputDir,
		OutputDir: *outputDir,
		Workers:   *workers,
		Preview:   *previewFlag,
	})

	paths := flag.Args()
	if len(paths) == 0 && cfg.InputDir != "" {
		var err error
		paths, err = findModels(cfg.InputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning %s: %v\n", cfg.InputDir, err)
			os.Exit(1)
		}
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: decompile [flags] model.mdl ...  (or -input <dir>)")
		flag.PrintDefaults()
		os.Exit(2)
	}

	log := logx.Sink{
		Warn: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
	}
	if *verbose {
		log.Info = func(format string, args ...any) {
			fmt.Printf(format+"\n", args...)
		}
	}

	fmt.Printf("Models: %d, Workers: %d\n", len(paths), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(batch.Config{
		OutputDir:   cfg.OutputDir,
		Workers:     cfg.Workers,
		Preview:     cfg.Preview,
		PreviewSize: cfg.PreviewSize,
		Supersample: cfg.Supersample,
		Log:         log,
	}, paths)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	success, failed := 0, 0
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			fmt.Fprintf(os.Stderr, "  FAIL %s: %s\n", r.Path, r.Error)
		}
	}
	fmt.Printf("Converted: %d, Failed: %d\n", success, failed)

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing manifest: %v\n", err)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func findModels(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".mdl") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}
