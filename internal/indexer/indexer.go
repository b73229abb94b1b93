// Package indexer builds the structural model of a whole project: it finds
// the VHDL files the configuration names, extracts them in parallel through a
// per-file model cache and checks the result against the model contract.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/config"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/extractor"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/validator"
)

// ModelExtractor extracts the model of one file.
type ModelExtractor interface {
	Extract(ctx context.Context, path string) (model.File, error)
}

// BuildStats summarizes the last Build.
type BuildStats struct {
	Files      int
	Cached     int
	Extracted  int
	ThirdParty int
	Duration   time.Duration
	Model      model.Stats
}

// Indexer builds a model.Project. It satisfies sensitivity.ModelBuilder.
type Indexer struct {
	// Root is the project directory, or a single VHDL file.
	Root   string
	Config *config.Config
	Logger *zap.SugaredLogger

	Extractor        ModelExtractor
	ExtractorVersion string

	// Validator, when set, checks the built model against the model schema.
	Validator *validator.ModelValidator

	// Files, when set, replaces configuration-based discovery. Directories
	// are searched recursively.
	Files []string

	Timing     bool
	TimingPath string

	stats BuildStats
}

// New creates an indexer for root using the regex extractor.
func New(root string, cfg *config.Config, logger *zap.SugaredLogger) *Indexer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Indexer{
		Root:             root,
		Config:           cfg,
		Logger:           logger,
		Extractor:        extractor.New(),
		ExtractorVersion: extractor.Version,
	}
}

// Stats returns the summary of the last Build.
func (idx *Indexer) Stats() BuildStats {
	return idx.stats
}

// Build discovers, extracts and validates the project. Project keys are file
// paths relative to Root, with forward slashes. Any failure wraps
// model.ErrModelNotBuilt: a partial model is never returned.
func (idx *Indexer) Build(ctx context.Context) (model.Project, error) {
	start := time.Now()
	idx.stats = BuildStats{}

	timing := newTimingRecorder(start, idx.resolveTimingPath())
	defer timing.Close()
	if err := timing.Err(); err != nil {
		idx.logger().Warnw("timing output disabled", "error", err)
	}

	project, err := idx.build(ctx, timing)
	idx.stats.Duration = time.Since(start)
	if err != nil {
		timing.RecordStage("total", start, "error")
		if errors.Is(err, model.ErrModelNotBuilt) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrModelNotBuilt, err)
	}
	timing.RecordStage("total", start, "ok")

	idx.stats.Model = project.Stats()
	idx.logger().Infow("model built",
		"files", idx.stats.Files,
		"cached", idx.stats.Cached,
		"extracted", idx.stats.Extracted,
		"processes", idx.stats.Model.Processes,
		"synchronous", idx.stats.Model.Synchronous,
		"duration", idx.stats.Duration,
	)
	return project, nil
}

func (idx *Indexer) build(ctx context.Context, timing *timingRecorder) (model.Project, error) {
	logger := idx.logger()
	cfg := idx.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ext := idx.Extractor
	if ext == nil {
		ext = extractor.New()
	}

	scanStart := time.Now()
	files, err := idx.discover(cfg)
	if err != nil {
		timing.RecordStage("scan", scanStart, "error")
		return nil, fmt.Errorf("finding VHDL files: %w", err)
	}
	timing.RecordStage("scan", scanStart, "ok")
	idx.stats.Files = len(files)
	if len(files) == 0 {
		logger.Warnw("no VHDL files found", "root", idx.Root)
	}

	var cache *modelCache
	if cfg.CacheEnabled() {
		cache = newModelCache(resolveCacheDir(idx.Root, cfg), computeCacheVersions(idx.ExtractorVersion))
		if err := cache.Load(); err != nil {
			logger.Warnw("model cache disabled", "dir", cache.dir, "error", err)
			cache = nil
		}
	}

	limit := cfg.Analysis.MaxParallelFiles
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	extractStart := time.Now()
	results := make([]model.File, len(files))
	errs := make([]error, len(files))
	var cached, extracted atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileStart := time.Now()
			id := idx.fileID(path)

			var hash string
			if cache != nil {
				h, err := hashFile(path)
				if err != nil {
					logger.Debugw("hashing file failed", "file", id, "error", err)
				} else {
					hash = h
					f, ok, err := cache.Get(path, hash)
					if err != nil {
						logger.Debugw("cache read failed", "file", id, "error", err)
					} else if ok {
						f.Path = id
						results[i] = f
						cached.Add(1)
						timing.RecordFile("extract", id, "cached", fileStart)
						return nil
					}
				}
			}

			f, err := ext.Extract(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = fmt.Errorf("%s: %w", id, err)
				timing.RecordFile("extract", id, "error", fileStart)
				return nil
			}
			f.Path = id
			results[i] = f
			extracted.Add(1)
			if cache != nil && hash != "" {
				if err := cache.Put(path, hash, f); err != nil {
					logger.Debugw("cache write failed", "file", id, "error", err)
				}
			}
			timing.RecordFile("extract", id, "ok", fileStart)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		timing.RecordStage("extract", extractStart, "cancelled")
		return nil, err
	}
	idx.stats.Cached = int(cached.Load())
	idx.stats.Extracted = int(extracted.Load())

	if err := errors.Join(errs...); err != nil {
		timing.RecordStage("extract", extractStart, "error")
		return nil, fmt.Errorf("extracting files: %w", err)
	}
	timing.RecordStage("extract", extractStart, "ok")

	if cache != nil {
		keep := make(map[string]bool, len(files))
		for _, path := range files {
			keep[path] = true
		}
		if n := cache.Prune(keep); n > 0 {
			logger.Debugw("pruned model cache", "entries", n)
		}
		if err := cache.Save(); err != nil {
			logger.Warnw("saving model cache failed", "error", err)
		}
	}

	project := make(model.Project, len(results))
	for _, f := range results {
		project[f.Path] = f
	}

	if idx.Validator != nil {
		validateStart := time.Now()
		if err := idx.Validator.Validate(project); err != nil {
			timing.RecordStage("validate", validateStart, "error")
			return nil, fmt.Errorf("model contract: %w", err)
		}
		timing.RecordStage("validate", validateStart, "ok")
	}

	return project, nil
}

// discover returns the absolute, sorted paths of the files to check.
// Third-party and ignored files are left out.
func (idx *Indexer) discover(cfg *config.Config) ([]string, error) {
	set := make(map[string]bool)

	switch {
	case len(idx.Files) > 0:
		for _, p := range idx.Files {
			found, err := findVHDLFiles(p)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				set[f] = true
			}
		}

	case idx.rootIsFile():
		abs, err := filepath.Abs(idx.Root)
		if err != nil {
			return nil, err
		}
		set[abs] = true

	default:
		libFiles, err := cfg.ProjectFiles(idx.Root)
		if err != nil {
			return nil, err
		}
		for path, info := range libFiles {
			if info.IsThirdParty {
				idx.stats.ThirdParty++
				continue
			}
			set[path] = true
		}
		if len(libFiles) == 0 {
			// Configuration matched nothing; fall back to a directory scan
			found, err := findVHDLFiles(idx.Root)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				set[f] = true
			}
		}
	}

	files := make([]string, 0, len(set))
	for f := range set {
		if cfg.ShouldIgnoreFile(f) {
			continue
		}
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func (idx *Indexer) rootIsFile() bool {
	info, err := os.Stat(idx.Root)
	return err == nil && !info.IsDir()
}

// baseDir is the directory project keys are relative to.
func (idx *Indexer) baseDir() string {
	base := idx.Root
	if base == "" {
		base = "."
	}
	if idx.rootIsFile() {
		base = filepath.Dir(base)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return base
	}
	return abs
}

// fileID is the project key of path: relative to the base directory when
// inside it, absolute otherwise.
func (idx *Indexer) fileID(path string) string {
	if rel, err := filepath.Rel(idx.baseDir(), path); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func (idx *Indexer) logger() *zap.SugaredLogger {
	if idx.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return idx.Logger
}

// findVHDLFiles returns the absolute paths of the .vhd/.vhdl files at or
// below root.
func findVHDLFiles(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}

	var files []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != abs && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".vhd" || ext == ".vhdl" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
