package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	mp4 "github.com/abema/go-mp4"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"
)

// Offset between the mp4 epoch (1904) and the Unix epoch.
const mp4EpochOffset = 2082844800

var isoBaseMediaExt = map[string]bool{
	".mp4": true,
	".mov": true,
	".m4v": true,
	".3gp": true,
	".3g2": true,
}

// NativeReader reads capture times without an external tool. It cannot validate
// (every report is empty, so every file is Ok) and cannot write.
type NativeReader struct {
	Fs afero.Fs
}

func (NativeReader) Validate(ctx context.Context, path string) (string, error) {
	return "", ctx.Err()
}

func (r NativeReader) ReadTimeFields(ctx context.Context, path string) (TimeFields, error) {
	if err := ctx.Err(); err != nil {
		return TimeFields{}, err
	}
	f, err := r.Fs.Open(path)
	if err != nil {
		return TimeFields{}, err
	}
	defer f.Close()

	if isoBaseMediaExt[strings.ToLower(filepath.Ext(path))] {
		return mvhdTimeFields(f)
	}
	return exifTimeFields(f)
}

func (NativeReader) WriteTimeFields(ctx context.Context, path string, fields TimeFields) error {
	return ErrWriteUnsupported
}

func (NativeReader) Close() error { return nil }

// exifTimeFields maps EXIF DateTimeOriginal and DateTimeDigitized to the exiftool
// tag names DateTimeOriginal and CreateDate.
func exifTimeFields(f afero.File) (TimeFields, error) {
	fields := TimeFields{}
	x, err := exif.Decode(f)
	if err != nil {
		return fields, fmt.Errorf("failed to decode exif: %w", err)
	}

	for tag, field := range map[string]exif.FieldName{
		"DateTimeOriginal": exif.DateTimeOriginal,
		"CreateDate":       exif.DateTimeDigitized,
	} {
		t, err := x.Get(field)
		if err != nil {
			continue
		}
		if v, err := t.StringVal(); err == nil {
			fields[tag] = strings.TrimSpace(v)
		}
	}
	return fields, nil
}

// mvhdTimeFields reads moov/mvhd creation time, which exiftool reports as
// QuickTime CreateDate in UTC.
func mvhdTimeFields(f afero.File) (TimeFields, error) {
	fields := TimeFields{}
	boxes, err := mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return fields, fmt.Errorf("failed to extract mvhd: %w", err)
	}
	if len(boxes) == 0 {
		return fields, nil
	}
	mvhd, ok := boxes[0].Payload.(*mp4.Mvhd)
	if !ok {
		return fields, nil
	}

	var ct uint64
	if mvhd.Version > 0 {
		ct = mvhd.CreationTimeV1
	} else {
		ct = uint64(mvhd.CreationTimeV0)
	}
	if ct == 0 {
		return fields, nil
	}
	fields["CreateDate"] = time.Unix(int64(ct)-mp4EpochOffset, 0).UTC().Format(ExifDateLayout)
	return fields, nil
}
