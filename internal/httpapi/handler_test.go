package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/objrelay/pkg/storage"
)

// fakeWriter records PutObject calls and optionally fails them.
type fakeWriter struct {
	err error

	mu     sync.Mutex
	inputs []*s3.PutObjectInput
	bodies [][]byte
}

func (f *fakeWriter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, data)

	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeWriter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func newTestRouter(t *testing.T, cfg storage.Config, w storage.ObjectWriter, opts ...Option) http.Handler {
	t.Helper()

	relay, err := storage.New(cfg, storage.WithObjectWriter(w), storage.WithEnvironment(map[string]string{}))
	require.NoError(t, err)
	return NewRouter(relay, opts...)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) storage.UploadResult {
	t.Helper()

	var res storage.UploadResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

type apiError struct{ code string }

func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return "denied" }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }
func (e *apiError) Error() string                 { return e.code }

func TestUpload_RawBody(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	h := newTestRouter(t, storage.Config{Bucket: "assets", Endpoint: "https://s3.example.com"}, w)

	req := httptest.NewRequest(http.MethodPost, "/v1/objects?key=docs/readme.txt&disposition=attachment", strings.NewReader("hello"))
	req.Header.Set("Content-Type", "text/plain")
	rec := serve(h, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	res := decodeResult(t, rec)
	assert.Equal(t, "https://s3.example.com/assets/docs/readme.txt", res.Location)
	assert.Equal(t, "readme.txt", res.Filename)
	assert.Equal(t, "assets", res.Bucket)

	require.Equal(t, 1, w.calls())
	assert.Equal(t, "hello", string(w.bodies[0]))
	assert.Equal(t, "text/plain", aws.ToString(w.inputs[0].ContentType))
	assert.Equal(t, "attachment", aws.ToString(w.inputs[0].ContentDisposition))
}

func TestUpload_GeneratedKeyAndSniffedType(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	h := newTestRouter(t, storage.Config{Bucket: "assets"}, w)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	req := httptest.NewRequest(http.MethodPost, "/v1/objects?prefix=avatars/u1", bytes.NewReader(png))
	rec := serve(h, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	res := decodeResult(t, rec)
	assert.True(t, strings.HasPrefix(res.Key, "avatars/u1/"), res.Key)
	assert.True(t, strings.HasSuffix(res.Key, ".png"), res.Key)

	require.Equal(t, 1, w.calls())
	assert.Equal(t, png, w.bodies[0])
	assert.Equal(t, "image/png", aws.ToString(w.inputs[0].ContentType))
}

func TestUpload_Multipart(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	h := newTestRouter(t, storage.Config{Bucket: "assets"}, w)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("key", "reports/q1.csv"))
	require.NoError(t, mw.WriteField("bucket", "reports"))
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="q1.csv"`},
		"Content-Type":        {"text/csv"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/objects", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(h, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	res := decodeResult(t, rec)
	assert.Equal(t, "reports", res.Bucket)
	assert.Equal(t, "reports/q1.csv", res.Key)

	require.Equal(t, 1, w.calls())
	assert.Equal(t, "a,b\n1,2\n", string(w.bodies[0]))
	assert.Equal(t, "text/csv", aws.ToString(w.inputs[0].ContentType))
}

func TestUpload_MultipartMissingFile(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	h := newTestRouter(t, storage.Config{Bucket: "assets"}, w)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("key", "a.txt"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/objects", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(h, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidRequest, decodeError(t, rec).Code)
	assert.Zero(t, w.calls())
}

func TestUpload_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      storage.Config
		writeErr error
		target   string
		body     string
		opts     []Option
		status   int
		code     string
		writes   int
	}{
		{
			name:   "missing bucket",
			target: "/v1/objects?key=a.txt",
			body:   "x",
			status: http.StatusUnprocessableEntity,
			code:   CodeConfiguration,
		},
		{
			name:   "invalid disposition",
			cfg:    storage.Config{Bucket: "assets"},
			target: "/v1/objects?key=a.txt&disposition=download",
			body:   "x",
			status: http.StatusBadRequest,
			code:   CodeInvalidRequest,
		},
		{
			name:   "body over limit",
			cfg:    storage.Config{Bucket: "assets"},
			target: "/v1/objects?key=a.txt",
			body:   strings.Repeat("x", 64),
			opts:   []Option{WithMaxUploadSize(16)},
			status: http.StatusRequestEntityTooLarge,
			code:   CodePayloadTooLarge,
		},
		{
			name:     "access denied",
			cfg:      storage.Config{Bucket: "assets"},
			writeErr: &apiError{code: "AccessDenied"},
			target:   "/v1/objects?key=a.txt",
			body:     "x",
			status:   http.StatusBadGateway,
			code:     CodeStorageWriteFailed,
			writes:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := &fakeWriter{err: tt.writeErr}
			h := newTestRouter(t, tt.cfg, w, tt.opts...)

			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "text/plain")
			rec := serve(h, req)

			require.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, rec.Header().Get(RequestIDHeader), body.RequestID)
			assert.Equal(t, tt.writes, w.calls())
		})
	}
}

func TestRelay_Success(t *testing.T) {
	t.Parallel()

	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remote bytes"))
	}))
	t.Cleanup(src.Close)

	w := &fakeWriter{}
	h := newTestRouter(t, storage.Config{Bucket: "assets", PublicDomain: "https://cdn.example.com"}, w)

	payload := fmt.Sprintf(`{"url":%q,"prefix":"covers","content_type":"image/jpeg"}`, src.URL+"/cover")
	req := httptest.NewRequest(http.MethodPost, "/v1/relay", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(h, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	res := decodeResult(t, rec)
	assert.True(t, strings.HasPrefix(res.Key, "covers/"), res.Key)
	assert.True(t, strings.HasSuffix(res.Key, ".jpg"), res.Key)
	assert.Equal(t, "https://cdn.example.com/"+res.Key, res.URL)

	require.Equal(t, 1, w.calls())
	assert.Equal(t, "remote bytes", string(w.bodies[0]))
	assert.Equal(t, "image/jpeg", aws.ToString(w.inputs[0].ContentType))
}

func TestRelay_Errors(t *testing.T) {
	t.Parallel()

	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big" {
			_, _ = w.Write(bytes.Repeat([]byte("x"), 128))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(src.Close)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"source not found", fmt.Sprintf(`{"url":%q,"key":"a.bin"}`, src.URL+"/missing"), http.StatusBadGateway, CodeRemoteFetchFailed},
		{"source too large", fmt.Sprintf(`{"url":%q,"key":"a.bin"}`, src.URL+"/big"), http.StatusRequestEntityTooLarge, CodeDownloadTooLarge},
		{"invalid url", `{"url":"ftp://example.com/a","key":"a.bin"}`, http.StatusBadRequest, CodeInvalidURL},
		{"malformed json", `{"url":`, http.StatusBadRequest, CodeInvalidRequest},
		{"unknown field", `{"link":"https://example.com"}`, http.StatusBadRequest, CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := &fakeWriter{}
			h := newTestRouter(t, storage.Config{Bucket: "assets", MaxDownloadSize: 64}, w)

			rec := serve(h, httptest.NewRequest(http.MethodPost, "/v1/relay", strings.NewReader(tt.body)))

			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
			assert.Zero(t, w.calls())
		})
	}
}

func TestKeyContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "image/webp", keyContentType("image/webp", "https://x.test/a.png"))
	assert.Equal(t, "image/png", keyContentType("", "https://x.test/a.png?size=2"))
	assert.Empty(t, keyContentType("", "https://x.test/download"))
}

func TestHTTPErrorFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty key", storage.ErrEmptyKey, http.StatusBadRequest, CodeInvalidRequest},
		{"configuration", &storage.ConfigurationError{Field: "bucket", Err: storage.ErrBucketRequired}, http.StatusUnprocessableEntity, CodeConfiguration},
		{"bad status", &storage.RemoteFetchError{StatusCode: 500, Err: storage.ErrUnexpectedStatus}, http.StatusBadGateway, CodeRemoteFetchFailed},
		{"empty body", &storage.RemoteFetchError{StatusCode: 200, Err: storage.ErrEmptyBody}, http.StatusBadGateway, CodeRemoteFetchFailed},
		{"write", &storage.StorageWriteError{Reason: storage.ErrBucketNotFound, Err: errors.New("x")}, http.StatusBadGateway, CodeStorageWriteFailed},
		{"deadline", fmt.Errorf("storage: fetch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, CodeTimeout},
		{"canceled", fmt.Errorf("storage: fetch: %w", context.Canceled), statusClientClosedRequest, CodeCanceled},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := httpErrorFrom(tt.err)
			assert.Equal(t, tt.status, got.Code)
			assert.Equal(t, tt.code, got.ErrorCode)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestHTTPErrorFrom_StorageWriteHidesBackend(t *testing.T) {
	t.Parallel()

	err := &storage.StorageWriteError{Reason: storage.ErrAccessDenied, Err: errors.New("secret backend detail"), Bucket: "b", Key: "k"}
	got := httpErrorFrom(err)
	assert.Equal(t, storage.ErrAccessDenied.Error(), got.Message)
}
