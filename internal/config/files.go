package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResolvedLibrary contains the expanded file list for a library
type ResolvedLibrary struct {
	Name         string
	Files        []string
	IsThirdParty bool
}

// ResolveLibraries expands all glob patterns and explicit file entries and
// returns the resolved file lists, sorted by library name and path.
func (c *Config) ResolveLibraries(rootPath string) ([]ResolvedLibrary, error) {
	sets := make(map[string]map[string]bool)
	thirdParty := make(map[string]bool)

	add := func(lib, file string) {
		if sets[lib] == nil {
			sets[lib] = make(map[string]bool)
		}
		sets[lib][file] = true
	}

	for libName, libCfg := range c.Libraries {
		if sets[libName] == nil {
			sets[libName] = make(map[string]bool)
		}
		thirdParty[libName] = libCfg.IsThirdParty

		for _, pattern := range libCfg.Files {
			matches, err := expandGlob(absPattern(rootPath, pattern))
			if err != nil {
				// Invalid patterns match nothing
				continue
			}
			for _, match := range matches {
				if isVHDL(match) {
					add(libName, match)
				}
			}
		}

		for _, pattern := range libCfg.Exclude {
			matches, err := expandGlob(absPattern(rootPath, pattern))
			if err != nil {
				continue
			}
			for _, match := range matches {
				delete(sets[libName], match)
			}
		}
	}

	for _, entry := range c.Files {
		if entry.File == "" || !isVHDLEntry(entry) {
			continue
		}
		lib := entry.Library
		if lib == "" {
			lib = "work"
		}
		if entry.IsThirdParty {
			thirdParty[lib] = true
		}
		add(lib, absPattern(rootPath, entry.File))
	}

	result := make([]ResolvedLibrary, 0, len(sets))
	for name, files := range sets {
		resolved := ResolvedLibrary{Name: name, IsThirdParty: thirdParty[name]}
		for f := range files {
			resolved.Files = append(resolved.Files, f)
		}
		sort.Strings(resolved.Files)
		result = append(result, resolved)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

func absPattern(rootPath, pattern string) string {
	if filepath.IsAbs(pattern) {
		return pattern
	}
	return filepath.Join(rootPath, pattern)
}

func isVHDL(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".vhd" || ext == ".vhdl"
}

func isVHDLEntry(entry FileEntry) bool {
	if entry.Language != "" {
		return strings.EqualFold(entry.Language, "vhdl")
	}
	return isVHDL(entry.File)
}

// expandGlob expands a glob pattern, handling ** for recursive matching
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return expandDoubleStarGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// expandDoubleStarGlob handles ** patterns by walking the directory tree
// below the part of the pattern in front of the first **.
func expandDoubleStarGlob(pattern string) ([]string, error) {
	parts := strings.SplitN(pattern, "**", 2)
	if len(parts) != 2 {
		return filepath.Glob(pattern)
	}

	baseDir := filepath.Clean(parts[0])
	suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

	var results []string
	err := filepath.WalkDir(baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if d.IsDir() {
			return nil
		}
		if suffix == "" {
			results = append(results, path)
			return nil
		}
		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}
		if matchSuffix(relPath, suffix) {
			results = append(results, path)
		}
		return nil
	})

	return results, err
}

// matchSuffix checks if a path matches the part of a pattern after **
func matchSuffix(path, pattern string) bool {
	pattern = strings.TrimPrefix(pattern, string(filepath.Separator))

	if !strings.Contains(pattern, string(filepath.Separator)) {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		return matched
	}

	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}

	// Match the trailing path components only
	segments := strings.Count(pattern, string(filepath.Separator)) + 1
	parts := strings.Split(path, string(filepath.Separator))
	if len(parts) < segments {
		return false
	}
	tail := filepath.Join(parts[len(parts)-segments:]...)
	matched, _ := filepath.Match(pattern, tail)
	return matched
}

// FileLibraryInfo contains library information for a specific file
type FileLibraryInfo struct {
	LibraryName  string
	IsThirdParty bool
}

// ProjectFiles returns every file the checker should see, keyed by absolute
// path: files of all libraries minus ignored ones. Third-party files are
// included with IsThirdParty set so the caller can skip them.
func (c *Config) ProjectFiles(rootPath string) (map[string]FileLibraryInfo, error) {
	libs, err := c.ResolveLibraries(rootPath)
	if err != nil {
		return nil, err
	}

	files := make(map[string]FileLibraryInfo)
	for _, lib := range libs {
		for _, f := range lib.Files {
			if c.ShouldIgnoreFile(f) {
				continue
			}
			abs, err := filepath.Abs(f)
			if err != nil {
				abs = f
			}
			info, seen := files[abs]
			if seen && !info.IsThirdParty {
				continue
			}
			files[abs] = FileLibraryInfo{LibraryName: lib.Name, IsThirdParty: lib.IsThirdParty}
		}
	}
	return files, nil
}
