package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Ping reports whether the relay is able to sign writes: the S3 client's
// credentials provider must yield keys. It makes no call to the store.
// Injected writers other than *s3.Client are assumed ready.
func (r *Relay) Ping(ctx context.Context) error {
	client, ok := r.writer.(*s3.Client)
	if !ok {
		return nil
	}

	provider := client.Options().Credentials
	if provider == nil {
		return &ConfigurationError{Field: "credentials", Err: ErrInvalidConfig}
	}

	creds, err := provider.Retrieve(ctx)
	if err != nil {
		return &ConfigurationError{Field: "credentials", Err: err}
	}
	if !creds.HasKeys() {
		return &ConfigurationError{Field: "credentials", Err: ErrInvalidConfig}
	}
	return nil
}
