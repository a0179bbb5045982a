package internal

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// PlacementResult describes where a file ended up.
type PlacementResult struct {
	FinalPath      string
	Duplicate      bool
	DuplicateIndex int // 1 for the first duplicate of a name, 2 for the second...
}

// Placer copies files into the output buckets. It never overwrites or deletes
// anything already placed; a name collision reroutes the copy into
// duplicates/<name>/<fileIndex>_<name>.
type Placer struct {
	Fs   afero.Fs
	Root string

	// MarkOnly writes empty marker files instead of copying bytes (dry run).
	MarkOnly bool

	dupCounts map[string]int
}

func NewPlacer(fsys afero.Fs, root string) *Placer {
	return &Placer{
		Fs:        fsys,
		Root:      root,
		dupCounts: make(map[string]int),
	}
}

// BucketDir is the directory of bucket under the output root.
func (p *Placer) BucketDir(bucket Bucket) string {
	return filepath.Join(p.Root, string(bucket))
}

// Place copies src to bucket/fileName, or into the duplicates bucket when that
// path is taken. fileIndex is the zero-based discovery position of src.
func (p *Placer) Place(src string, bucket Bucket, fileName string, fileIndex int) (PlacementResult, error) {
	target := filepath.Join(p.BucketDir(bucket), fileName)

	exists, err := afero.Exists(p.Fs, target)
	if err != nil {
		return PlacementResult{}, fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if !exists {
		if err := p.copy(src, target); err != nil {
			return PlacementResult{}, err
		}
		return PlacementResult{FinalPath: target}, nil
	}

	dir := filepath.Join(p.BucketDir(BucketDuplicates), fileName)
	if err := p.Fs.MkdirAll(dir, 0755); err != nil {
		return PlacementResult{}, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	dest := filepath.Join(dir, fmt.Sprintf("%d_%s", fileIndex, fileName))
	if taken, err := afero.Exists(p.Fs, dest); err != nil {
		return PlacementResult{}, fmt.Errorf("failed to stat %s: %w", dest, err)
	} else if taken {
		return PlacementResult{}, fmt.Errorf("duplicate target %s already exists", dest)
	}
	if err := p.copy(src, dest); err != nil {
		return PlacementResult{}, err
	}

	p.dupCounts[fileName]++
	return PlacementResult{FinalPath: dest, Duplicate: true, DuplicateIndex: p.dupCounts[fileName]}, nil
}

func (p *Placer) copy(src, dest string) error {
	if p.MarkOnly {
		if err := afero.WriteFile(p.Fs, dest, nil, 0644); err != nil {
			return fmt.Errorf("failed to mark %s: %w", dest, err)
		}
		return nil
	}
	if err := copyFileAtomic(p.Fs, src, dest); err != nil {
		return fmt.Errorf("failed to copy file %s to %s: %w", src, dest, err)
	}
	return nil
}

// copyFileAtomic copies a file atomically (copy temp → rename)
func copyFileAtomic(fsys afero.Fs, src, dest string) error {
	tmp := dest + ".tmp"
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fsys.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		fsys.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		fsys.Remove(tmp)
		return err
	}

	return fsys.Rename(tmp, dest)
}
