package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/objrelay/pkg/logger"
)

// Relay uploads payloads to an S3-compatible store and relays remote
// resources into it. A Relay is immutable after New and safe for
// concurrent use.
type Relay struct {
	writer     ObjectWriter
	httpClient *http.Client
	logger     *slog.Logger
	cfg        Config
}

// New creates a Relay. Unset Config fields are resolved from the environment.
// Missing credentials do not fail construction; they surface on the first write.
// The only error is a malformed environment value.
func New(cfg Config, opts ...Option) (*Relay, error) {
	o := &options{
		httpClient: &http.Client{},
		logger:     logger.NewNope(),
	}
	for _, opt := range opts {
		opt(o)
	}

	fromEnv, err := ConfigFromEnv(o.environment)
	if err != nil {
		return nil, err
	}
	cfg = cfg.resolve(fromEnv)

	writer := o.writer
	if writer == nil {
		writer = newS3Client(cfg, o.logger)
	}

	return &Relay{
		writer:     writer,
		httpClient: o.httpClient,
		logger:     o.logger,
		cfg:        cfg,
	}, nil
}

// newS3Client builds the S3 client. Static credentials are used when either
// key is set; otherwise the AWS default credential chain is tried.
func newS3Client(cfg Config, log *slog.Logger) *s3.Client {
	endpointOpts := func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Not every S3-compatible store accepts the SDK's default checksums.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	}

	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		return s3.New(s3.Options{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			),
		}, endpointOpts)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		log.Warn("aws default config unavailable, using anonymous credentials",
			slog.String("error", err.Error()),
		)
		return s3.New(s3.Options{
			Region:      cfg.Region,
			Credentials: aws.AnonymousCredentials{},
		}, endpointOpts)
	}

	return s3.NewFromConfig(awsCfg, endpointOpts)
}

// Config returns the resolved configuration.
func (r *Relay) Config() Config {
	return r.cfg
}

// UploadFile writes req.Body to {bucket}/{key} with a single PutObject.
// The bucket falls back to the configured default; if neither is set a
// *ConfigurationError is returned before any network call.
func (r *Relay) UploadFile(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	disposition, bucket, err := r.prepare(req.Key, req.Bucket, req.Disposition)
	if err != nil {
		return nil, err
	}

	body, size, err := req.Body.open()
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:             aws.String(bucket),
		Key:                aws.String(req.Key),
		Body:               body,
		ContentLength:      aws.Int64(size),
		ContentDisposition: aws.String(string(disposition)),
	}
	if req.ContentType != "" {
		input.ContentType = aws.String(req.ContentType)
	}

	if _, err := r.writer.PutObject(ctx, input); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("storage: write s3://%s/%s: %w", bucket, req.Key, ctxErr)
		}
		r.logger.WarnContext(ctx, "object write failed",
			slog.String("bucket", bucket),
			slog.String("key", req.Key),
			slog.String("error", err.Error()),
		)
		return nil, wrapWriteError(err, bucket, req.Key)
	}

	location := r.objectLocation(bucket, req.Key)
	result := &UploadResult{
		Location: location,
		Bucket:   bucket,
		Key:      req.Key,
		Filename: filenameOf(req.Key),
		URL:      r.publicURL(req.Key, location),
	}

	r.logger.DebugContext(ctx, "object stored",
		slog.String("bucket", bucket),
		slog.String("key", req.Key),
		slog.Int64("size", size),
	)

	return result, nil
}

// DownloadAndUpload fetches req.URL, buffers the whole body and stores it
// via UploadFile with the same key, bucket, content type and disposition.
func (r *Relay) DownloadAndUpload(ctx context.Context, req DownloadRequest) (*UploadResult, error) {
	if _, _, err := r.prepare(req.Key, req.Bucket, req.Disposition); err != nil {
		return nil, err
	}

	data, err := r.fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	return r.UploadFile(ctx, UploadRequest{
		Body:        Bytes(data),
		Key:         req.Key,
		ContentType: req.ContentType,
		Bucket:      req.Bucket,
		Disposition: req.Disposition,
	})
}

// prepare validates the request fields shared by both operations and
// resolves the bucket.
func (r *Relay) prepare(key, bucket string, d Disposition) (Disposition, string, error) {
	if strings.TrimSpace(key) == "" {
		return "", "", ErrEmptyKey
	}

	disposition, err := d.normalize()
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", err, d)
	}

	bucket = firstNonEmpty(bucket, r.cfg.Bucket)
	if bucket == "" {
		return "", "", &ConfigurationError{Field: "bucket", Err: ErrBucketRequired}
	}

	return disposition, bucket, nil
}

// fetch downloads rawURL into memory.
func (r *Relay) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, &RemoteFetchError{URL: rawURL, Err: ErrInvalidURL}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, &RemoteFetchError{URL: rawURL, Err: fmt.Errorf("%w: %w", ErrInvalidURL, err)}
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("storage: fetch %s: %w", rawURL, ctxErr)
		}
		return nil, &RemoteFetchError{URL: rawURL, Err: fmt.Errorf("%w: %w", ErrDownloadFailed, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteFetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	if resp.Body == http.NoBody {
		return nil, &RemoteFetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrEmptyBody}
	}

	limit := r.cfg.MaxDownloadSize
	var body io.Reader = resp.Body
	if limit > 0 {
		if resp.ContentLength > limit {
			return nil, &RemoteFetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrDownloadTooLarge}
		}
		body = io.LimitReader(resp.Body, limit+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("storage: fetch %s: %w", rawURL, ctxErr)
		}
		return nil, &RemoteFetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %w", ErrDownloadFailed, err)}
	}

	if limit > 0 && int64(len(data)) > limit {
		return nil, &RemoteFetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrDownloadTooLarge}
	}
	if len(data) == 0 {
		return nil, &RemoteFetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrEmptyBody}
	}

	r.logger.DebugContext(ctx, "remote resource fetched",
		slog.String("url", rawURL),
		slog.Int("size", len(data)),
	)

	return data, nil
}

// Ensure *s3.Client satisfies ObjectWriter.
var _ ObjectWriter = (*s3.Client)(nil)

// IsCanceled reports whether err comes from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
