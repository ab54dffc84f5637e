package storage

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for storage operations.
var (
	// Request errors.
	ErrEmptyKey           = errors.New("storage: key is required")
	ErrInvalidDisposition = errors.New("storage: invalid content disposition")

	// Configuration errors.
	ErrBucketRequired = errors.New("storage: bucket is required")
	ErrInvalidConfig  = errors.New("storage: invalid configuration")

	// Remote fetch errors.
	ErrInvalidURL       = errors.New("storage: invalid URL")
	ErrUnexpectedStatus = errors.New("storage: unexpected HTTP status")
	ErrEmptyBody        = errors.New("storage: no body in response")
	ErrDownloadTooLarge = errors.New("storage: download exceeds size limit")
	ErrDownloadFailed   = errors.New("storage: failed to download from URL")

	// S3 write errors.
	ErrAccessDenied   = errors.New("storage: access denied")
	ErrBucketNotFound = errors.New("storage: bucket not found")
	ErrUploadFailed   = errors.New("storage: upload failed")
)

// ConfigurationError reports configuration that is missing or malformed.
// It is always detected before any network call.
type ConfigurationError struct {
	Err   error
	Field string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (%s)", e.Err, e.Field)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// RemoteFetchError reports a failed fetch of the source resource during a relay.
// StatusCode is zero when no HTTP response was received.
type RemoteFetchError struct {
	Err        error
	URL        string
	StatusCode int
}

func (e *RemoteFetchError) Error() string {
	if e.StatusCode != 0 && (e.StatusCode < 200 || e.StatusCode > 299) {
		return fmt.Sprintf("fetch %s: %v: %d %s", e.URL, e.Err, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// StorageWriteError reports a failed object write.
// Reason classifies the failure as one of the package sentinels and Err keeps
// the original backend error, so both errors.Is(err, ErrAccessDenied) and
// errors.As(err, &smithy.APIError) work on it.
type StorageWriteError struct {
	Reason error
	Err    error
	Bucket string
	Key    string
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("%v: s3://%s/%s: %v", e.Reason, e.Bucket, e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() []error {
	return []error{e.Reason, e.Err}
}

// classifyS3Error maps an S3 error onto a package sentinel.
// It checks both API error codes and typed errors.
func classifyS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return ErrAccessDenied
		case "NoSuchBucket":
			return ErrBucketNotFound
		}
	}

	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return ErrBucketNotFound
	}

	return ErrUploadFailed
}

// wrapWriteError wraps a PutObject failure into a StorageWriteError.
func wrapWriteError(err error, bucket, key string) error {
	return &StorageWriteError{
		Reason: classifyS3Error(err),
		Err:    err,
		Bucket: bucket,
		Key:    key,
	}
}
