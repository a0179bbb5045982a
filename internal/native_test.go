package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	mp4 "github.com/abema/go-mp4"
	"github.com/spf13/afero"
)

func writeMovie(t *testing.T, fs afero.Fs, path string, created time.Time) {
	t.Helper()
	f, err := fs.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := mp4.NewWriter(f)
	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeMoov()}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeMvhd()}); err != nil {
		t.Fatal(err)
	}
	mvhd := &mp4.Mvhd{
		CreationTimeV0: uint32(created.Unix() + mp4EpochOffset),
		Timescale:      1000,
		Rate:           0x10000,
		Volume:         0x100,
		NextTrackID:    1,
	}
	if _, err := mp4.Marshal(w, mvhd, mp4.Context{}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.EndBox(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.EndBox(); err != nil {
		t.Fatal(err)
	}
}

func TestNativeReader_Movie(t *testing.T) {
	fs := afero.NewMemMapFs()
	created := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)
	writeMovie(t, fs, "/in/clip.MOV", created)

	fields, err := NativeReader{Fs: fs}.ReadTimeFields(context.Background(), "/in/clip.MOV")
	if err != nil {
		t.Fatalf("ReadTimeFields failed: %v", err)
	}
	if fields["CreateDate"] != "2021:05:01 10:00:00" {
		t.Errorf("Expected CreateDate 2021:05:01 10:00:00, got %v", fields)
	}
}

func TestNativeReader_NoExif(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/in/a.jpg", []byte("not a jpeg"), 0644)
	r := NativeReader{Fs: fs}

	fields, err := r.ReadTimeFields(context.Background(), "/in/a.jpg")
	if err == nil {
		t.Error("Expected decode error")
	}
	if len(fields) != 0 {
		t.Errorf("Expected no fields, got %v", fields)
	}

	report, err := r.Validate(context.Background(), "/in/a.jpg")
	if err != nil || report != "" {
		t.Errorf("Expected empty report, got %q (%v)", report, err)
	}
	if err := r.WriteTimeFields(context.Background(), "/in/a.jpg", CaptureTimeFields("x")); !errors.Is(err, ErrWriteUnsupported) {
		t.Errorf("Expected ErrWriteUnsupported, got %v", err)
	}
}
