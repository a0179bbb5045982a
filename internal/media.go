package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ScanMediaFiles scans input directory recursively for media files based on extensions.
// Directories listed in skip (typically the output root) are not descended into.
func ScanMediaFiles(fsys afero.Fs, inputDir string, cfg *Config, skip ...string) ([]string, error) {
	root, err := filepath.Abs(inputDir)
	if err != nil {
		return nil, fmt.Errorf("error resolving %s: %w", inputDir, err)
	}

	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipped[abs] = true
		}
	}

	wanted := make(map[string]bool)
	for _, e := range cfg.Extensions() {
		wanted[e] = true
	}

	var files []string
	err = afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipped[path] {
				return filepath.SkipDir
			}
			return nil
		}
		if wanted[strings.ToLower(filepath.Ext(info.Name()))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning files: %w", err)
	}
	return files, nil
}
