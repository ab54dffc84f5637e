// Package storage relays payloads into S3-compatible object storage.
//
// A Relay owns one configured S3 client and exposes two operations:
// UploadFile writes a payload to a key, DownloadAndUpload fetches a URL and
// writes the fetched bytes to a key. Both return an UploadResult carrying the
// storage location and a public URL.
//
// # Basic Usage
//
//	relay, err := storage.New(storage.Config{
//		Endpoint: "https://<account>.r2.cloudflarestorage.com",
//		Bucket:   "assets",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := relay.UploadFile(ctx, storage.UploadRequest{
//		Body:        storage.Bytes(data),
//		Key:         "docs/report.pdf",
//		ContentType: "application/pdf",
//		Disposition: storage.DispositionAttachment,
//	})
//
//	res, err = relay.DownloadAndUpload(ctx, storage.DownloadRequest{
//		URL: "https://example.com/cover.png",
//		Key: "covers/cover.png",
//	})
//
// # Configuration
//
// Fields left empty in Config are read from the environment once, in New:
//
//	STORAGE_ENDPOINT      custom endpoint (empty: AWS endpoint resolution)
//	STORAGE_REGION        signing region (default: auto)
//	STORAGE_ACCESS_KEY    access key ID
//	STORAGE_SECRET_KEY    secret access key
//	STORAGE_BUCKET        default bucket
//	STORAGE_DOMAIN        public domain override for derived URLs
//	STORAGE_PATH_STYLE    path-style addressing
//	STORAGE_MAX_DOWNLOAD  relay body cap in bytes (default: 50MB)
//
// # URLs
//
// With STORAGE_DOMAIN set, both Location and URL are {domain}/{key}.
// Otherwise Location is {endpoint}/{bucket}/{key} for a custom endpoint, or
// https://{bucket}.s3.amazonaws.com/{key}, and URL equals Location.
//
// # Errors
//
// Failures are typed: *ConfigurationError (missing bucket, bad environment),
// *RemoteFetchError (relay source failed, with StatusCode) and
// *StorageWriteError (PutObject failed, original error preserved). Each
// unwraps to a package sentinel usable with errors.Is:
//
//	var werr *storage.StorageWriteError
//	if errors.As(err, &werr) && errors.Is(err, storage.ErrAccessDenied) {
//		// credentials problem
//	}
//
// Canceled contexts are returned as context errors, not as typed failures.
package storage
