package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

type ScanOptions struct {
	Exts       []string // lowercase, with or without dot; empty means constants.AllowedExtensions
	Recursive  bool
	SkipHidden bool
}

type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// ScanDirectory lists files under root whose extension is allowed, sorted by
// path. Unreadable entries are counted and skipped.
func ScanDirectory(root string, opts ScanOptions) ([]string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	exts := extSet(opts.Exts)

	var (
		paths []string
		stats DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !opts.Recursive || (opts.SkipHidden && IsHidden(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		stats.Scanned++
		if opts.SkipHidden && IsHidden(path) {
			return nil
		}
		if !AllowedExt(filepath.Ext(path), exts) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, stats, nil
}
