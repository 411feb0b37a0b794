// Package batch runs model conversions through a bounded worker pool.
package batch

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"mdl-decompiler/internal/anim"
	"mdl-decompiler/internal/build"
	"mdl-decompiler/internal/geometry"
	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/physics"
	"mdl-decompiler/internal/preview"
	"mdl-decompiler/internal/studio"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	Workers     int
	Preview     bool
	PreviewSize int
	Supersample int
	Log         logx.Sink
}

// Result holds the outcome of converting one model.
type Result struct {
	Path      string
	Name      string
	Success   bool
	Error     string
	Meshes    int
	Sequences int
}

// Run converts all models using a worker pool. Per-model result order
// follows the input path order; a per-model failure is recorded and does not
// abort the batch.
func Run(cfg Config, paths []string) []Result {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	total := len(paths)
	results := make([]Result, total)
	locks := &pathLocks{}
	var processed atomic.Int64

	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					cfg.Log.Infof("  [%d/%d] %.1f models/sec", p, total, float64(p)/elapsed)
				}
			}
		}
	}()

	pathChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range pathChan {
				results[idx] = Convert(cfg, locks, paths[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range paths {
		pathChan <- i
	}
	close(pathChan)

	wg.Wait()
	close(done)

	return results
}

// ConvertOne runs the full pipeline for a single model path.
func ConvertOne(cfg Config, path string) Result {
	return Convert(cfg, &pathLocks{}, path)
}

// Convert loads one model's containers, runs the reconstruction stages in
// pipeline order, and writes the context dump (plus an optional preview)
// under the output-path locks.
func Convert(cfg Config, locks *pathLocks, path string) Result {
	res := Result{Path: path}

	m, err := studio.LoadFiles(path, cfg.Log)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	ctx := &build.Context{}
	geometry.Reconstruct(m, ctx, cfg.Log)
	physics.Reconstruct(m, ctx, cfg.Log)
	anim.Decode(m.MDL, ctx, cfg.Log)

	res.Name = ctx.Name
	res.Meshes = len(ctx.Meshes)
	res.Sequences = len(ctx.Sequences)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		res.Error = err.Error()
		return res
	}

	dump, err := marshalContext(ctx)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	dumpPath := filepath.Join(cfg.OutputDir, ctx.Name+".json")
	if err := writeLocked(locks, dumpPath, dump); err != nil {
		res.Error = err.Error()
		return res
	}

	if cfg.Preview {
		img := preview.Render(ctx, cfg.PreviewSize, cfg.Supersample)
		previewPath := filepath.Join(cfg.OutputDir, ctx.Name+".webp")
		if err := writePreviewLocked(locks, previewPath, img); err != nil {
			res.Error = fmt.Sprintf("preview: %v", err)
			return res
		}
	}

	res.Success = true
	return res
}

func writeLocked(locks *pathLocks, path string, data []byte) error {
	unlock := locks.lock(path)
	defer unlock()
	return os.WriteFile(path, data, 0644)
}

func writePreviewLocked(locks *pathLocks, path string, img *image.NRGBA) error {
	unlock := locks.lock(path)
	defer unlock()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return preview.Encode(f, img)
}
