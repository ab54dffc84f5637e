package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectWriter is the single object-store capability the relay depends on.
// *s3.Client satisfies it.
type ObjectWriter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Disposition controls whether clients render or download fetched content.
type Disposition string

const (
	DispositionInline     Disposition = "inline"
	DispositionAttachment Disposition = "attachment"
)

// normalize returns the effective disposition, defaulting to inline.
func (d Disposition) normalize() (Disposition, error) {
	switch d {
	case "", DispositionInline:
		return DispositionInline, nil
	case DispositionAttachment:
		return DispositionAttachment, nil
	default:
		return "", ErrInvalidDisposition
	}
}

// UploadRequest describes a single object write.
type UploadRequest struct {
	Body Body

	// Key is the object path within the bucket (required).
	Key string

	// ContentType is sent only when non-empty.
	ContentType string

	// Bucket overrides the default bucket.
	Bucket string

	// Disposition defaults to inline.
	Disposition Disposition
}

// DownloadRequest describes a relay: fetch URL, then write it under Key.
type DownloadRequest struct {
	URL         string
	Key         string
	ContentType string
	Bucket      string
	Disposition Disposition
}

// UploadResult describes a stored object.
type UploadResult struct {
	// Location is the storage-side URL of the object.
	Location string `json:"location"`
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	// Filename is the last path segment of Key.
	Filename string `json:"filename"`
	// URL is the public URL; equals Location unless a public domain is set.
	URL string `json:"url"`
}
