package internal

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

var (
	ErrScanDirMissing = errors.New("the directory to scan must exist")
	ErrOutputNotEmpty = errors.New("output directory must be empty")
)

// CheckScanDir fails with ErrScanDirMissing unless dir is an existing directory.
func CheckScanDir(fsys afero.Fs, dir string) error {
	ok, err := afero.DirExists(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrScanDirMissing, dir)
	}
	return nil
}

// PrepareOutput creates the bucket directories under root. An existing root must be empty.
func PrepareOutput(fsys afero.Fs, root string) error {
	exists, err := afero.Exists(fsys, root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if exists {
		empty, err := afero.IsEmpty(fsys, root)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", root, err)
		}
		if !empty {
			return fmt.Errorf("%w: %s", ErrOutputNotEmpty, root)
		}
	}

	for _, b := range Buckets {
		dir := filepath.Join(root, string(b))
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
