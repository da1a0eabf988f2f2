package walker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// FileInfo captures a regular file at the moment of the scan. Later phases
// see whatever is on disk when they read; there is no reconciliation if the
// file changes in between.
type FileInfo struct {
	Path string
	Size int64
}

type WalkResult struct {
	Files  []FileInfo
	Errors []error
}

// Walk recursively enumerates every regular file under rootPath, skipping
// entries that match an exclusion pattern. Symlinks, directories and
// special files are not reported. Errors on individual entries are
// collected and the walk continues; only an error on the root itself fails
// the whole enumeration.
func Walk(rootPath string, exclusions []string) (*WalkResult, error) {
	result := &WalkResult{
		Files:  make([]FileInfo, 0),
		Errors: make([]error, 0),
	}

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			result.Errors = append(result.Errors, err)
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}

		if shouldExclude(relPath, exclusions) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}

		result.Files = append(result.Files, FileInfo{
			Path: path,
			Size: info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return result, nil
}

func shouldExclude(relPath string, exclusions []string) bool {
	for _, pattern := range exclusions {
		if strings.HasSuffix(pattern, "/") {
			if matchesDirPattern(relPath, strings.TrimSuffix(pattern, "/")) {
				return true
			}
			continue
		}
		if matchesFilePattern(relPath, pattern) {
			return true
		}
	}
	return false
}

// matchesDirPattern reports whether any path component matches a directory
// pattern (written with a trailing slash in the config).
func matchesDirPattern(relPath, pattern string) bool {
	for _, part := range strings.Split(relPath, string(filepath.Separator)) {
		if part == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, part); matched {
			return true
		}
	}
	return false
}

func matchesFilePattern(relPath, pattern string) bool {
	if matched, err := filepath.Match(pattern, filepath.Base(relPath)); err == nil && matched {
		return true
	}
	// Patterns containing a separator match against the full relative path.
	if strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}
