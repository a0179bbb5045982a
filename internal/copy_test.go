package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func readString(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestPlacer_FirstPlacement(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/in/a.jpg", []byte("first"), 0644)
	if err := PrepareOutput(fs, "/out"); err != nil {
		t.Fatal(err)
	}

	p := NewPlacer(fs, "/out")
	res, err := p.Place("/in/a.jpg", BucketSafe, "2021-05-01-10-00-00.5.jpg", 0)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	expected := filepath.Join("/out", "safe", "2021-05-01-10-00-00.5.jpg")
	if res.FinalPath != expected {
		t.Errorf("Expected %s, got %s", expected, res.FinalPath)
	}
	if res.Duplicate {
		t.Error("Expected first placement not to be a duplicate")
	}
	if got := readString(t, fs, expected); got != "first" {
		t.Errorf("Expected copied content 'first', got %q", got)
	}
	if got := readString(t, fs, "/in/a.jpg"); got != "first" {
		t.Errorf("Source was modified: %q", got)
	}
	if ok, _ := afero.Exists(fs, expected+".tmp"); ok {
		t.Error("Temporary file left behind")
	}
}

func TestPlacer_Duplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/in/a.jpg", []byte("first"), 0644)
	afero.WriteFile(fs, "/in/b.jpg", []byte("second"), 0644)
	afero.WriteFile(fs, "/in/c.jpg", []byte("third"), 0644)
	PrepareOutput(fs, "/out")

	name := "2021-05-01-10-00-00.5.jpg"
	p := NewPlacer(fs, "/out")

	if _, err := p.Place("/in/a.jpg", BucketSafe, name, 0); err != nil {
		t.Fatal(err)
	}
	second, err := p.Place("/in/b.jpg", BucketSafe, name, 3)
	if err != nil {
		t.Fatal(err)
	}
	third, err := p.Place("/in/c.jpg", BucketSafe, name, 7)
	if err != nil {
		t.Fatal(err)
	}

	dupDir := filepath.Join("/out", "duplicates", name)
	if second.FinalPath != filepath.Join(dupDir, "3_"+name) {
		t.Errorf("Unexpected duplicate path %s", second.FinalPath)
	}
	if third.FinalPath != filepath.Join(dupDir, "7_"+name) {
		t.Errorf("Unexpected duplicate path %s", third.FinalPath)
	}
	if !second.Duplicate || second.DuplicateIndex != 1 {
		t.Errorf("Expected duplicate #1, got %+v", second)
	}
	if !third.Duplicate || third.DuplicateIndex != 2 {
		t.Errorf("Expected duplicate #2, got %+v", third)
	}

	if got := readString(t, fs, filepath.Join("/out", "safe", name)); got != "first" {
		t.Errorf("First placement was overwritten: %q", got)
	}
	if got := readString(t, fs, third.FinalPath); got != "third" {
		t.Errorf("Expected 'third', got %q", got)
	}
}

func TestPlacer_DuplicateAcrossBuckets(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/in/a.jpg", []byte("a"), 0644)
	PrepareOutput(fs, "/out")
	p := NewPlacer(fs, "/out")

	p.Place("/in/a.jpg", BucketWarnings, "n.jpg", 0)
	res, err := p.Place("/in/a.jpg", BucketSafe, "n.jpg", 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Duplicate {
		t.Error("Expected same name in another bucket not to collide")
	}
}

func TestPlacer_MarkOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/in/a.jpg", []byte("content"), 0644)
	PrepareOutput(fs, "/out")

	p := NewPlacer(fs, "/out")
	p.MarkOnly = true
	res, err := p.Place("/in/a.jpg", BucketSafe, "n.jpg", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := readString(t, fs, res.FinalPath); got != "" {
		t.Errorf("Expected empty marker, got %q", got)
	}

	dup, err := p.Place("/in/a.jpg", BucketSafe, "n.jpg", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !dup.Duplicate {
		t.Error("Expected markers to take part in duplicate detection")
	}
}

func TestCopyFileAtomic_OsFs(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "src.mov")
	dest := filepath.Join(tempDir, "dest.mov")

	data := make([]byte, 256*1024)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(src, data, 0644); err != nil {
		t.Fatal(err)
	}

	if err := copyFileAtomic(afero.NewOsFs(), src, dest); err != nil {
		t.Fatalf("copyFileAtomic failed: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Error("Copied bytes differ from source")
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temporary file left behind")
	}

	if err := copyFileAtomic(afero.NewOsFs(), filepath.Join(tempDir, "missing"), dest); err == nil {
		t.Error("Expected error for missing source")
	}
}
