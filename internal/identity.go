package internal

import (
	"errors"
	"fmt"
)

// OutputNameLayout is the timestamp part of a canonical output filename.
const OutputNameLayout = "2006-01-02-15-04-05"

// ErrUnsupportedStatus is fatal for the whole run.
var ErrUnsupportedStatus = errors.New("unsupported validation status")

// Bucket is one of the output categories under the output root.
type Bucket string

const (
	BucketSafe              Bucket = "safe"
	BucketUnsafe            Bucket = "unsafe"
	BucketCorrupted         Bucket = "corrupted"
	BucketWarnings          Bucket = "warnings"
	BucketDuplicates        Bucket = "duplicates"
	BucketChangedExtensions Bucket = "changed-extensions"
)

// Buckets lists every output directory in creation order.
var Buckets = []Bucket{
	BucketSafe,
	BucketUnsafe,
	BucketCorrupted,
	BucketWarnings,
	BucketDuplicates,
	BucketChangedExtensions,
}

// OutputIdentity is where a file lands before duplicate detection.
type OutputIdentity struct {
	FileName string
	Bucket   Bucket
}

// BuildIdentity names a file after its capture time, size and final extension.
// Files that agree on all three get the same name and are treated as duplicates.
func BuildIdentity(rec FileRecord, validation ValidationOutcome, date ResolvedDate) (OutputIdentity, error) {
	bucket, err := bucketFor(validation.Status, date.Trusted)
	if err != nil {
		return OutputIdentity{}, err
	}

	ext := rec.Extension
	if validation.CorrectedExtension != "" {
		ext = validation.CorrectedExtension
	}
	name := fmt.Sprintf("%s.%d.%s", date.Timestamp.Format(OutputNameLayout), rec.Size, ext)
	return OutputIdentity{FileName: name, Bucket: bucket}, nil
}

// bucketFor maps a non-error status to its bucket. Error files never get an identity.
func bucketFor(status ValidationStatus, trusted bool) (Bucket, error) {
	switch status {
	case StatusOk:
		if trusted {
			return BucketSafe, nil
		}
		return BucketUnsafe, nil
	case StatusWarning:
		return BucketWarnings, nil
	case StatusExtensionMismatch:
		return BucketChangedExtensions, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedStatus, status)
	}
}
