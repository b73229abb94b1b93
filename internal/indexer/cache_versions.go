package indexer

import (
	"os"
	"path/filepath"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/config"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/extractor"
)

type cacheVersions struct {
	parser    string
	extractor string
}

func resolveCacheDir(rootPath string, cfg *config.Config) string {
	baseDir := rootPath
	if info, err := os.Stat(rootPath); err == nil && !info.IsDir() {
		baseDir = filepath.Dir(rootPath)
	}
	cacheDir := cfg.Analysis.Cache.Dir
	if cacheDir == "" {
		cacheDir = config.DefaultCacheDir
	}
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(baseDir, cacheDir)
	}
	return cacheDir
}

// computeCacheVersions names what produced a cached model: the design-unit
// scanner and the extractor's model version.
func computeCacheVersions(extractorVersion string) cacheVersions {
	if extractorVersion == "" {
		extractorVersion = "unknown"
	}
	return cacheVersions{parser: extractor.Scanner, extractor: extractorVersion}
}
