package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"

	"github.com/dmitrymomot/objrelay/pkg/storage"
)

// multipartMemory is the part of a multipart form kept in memory; the rest spills to disk.
const multipartMemory = 32 << 20

// maxRelayRequestSize caps the JSON body of a relay request.
const maxRelayRequestSize = 64 << 10

// sniffLen is how many bytes are inspected to detect a missing content type.
const sniffLen = 512

// Relayer is the storage surface the API needs. *storage.Relay implements it.
type Relayer interface {
	UploadFile(ctx context.Context, req storage.UploadRequest) (*storage.UploadResult, error)
	DownloadAndUpload(ctx context.Context, req storage.DownloadRequest) (*storage.UploadResult, error)
	Ping(ctx context.Context) error
}

var _ Relayer = (*storage.Relay)(nil)

type handler struct {
	relay     Relayer
	logger    *slog.Logger
	maxUpload int64
}

// handleUpload handles POST /v1/objects.
// The payload is either the raw request body or the "file" part of a multipart form.
// Parameters key, prefix, bucket and disposition come from the query string
// or, for multipart requests, from form fields.
func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	var (
		body        io.Reader
		contentType string
		param       func(string) string
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			h.fail(w, r, badRequest("invalid multipart form", err))
			return
		}
		file, fh, err := r.FormFile("file")
		if err != nil {
			h.fail(w, r, badRequest(`missing form file "file"`, err))
			return
		}
		defer file.Close()

		body, contentType, param = file, fh.Header.Get("Content-Type"), r.FormValue
	} else {
		query := r.URL.Query()
		body, contentType, param = r.Body, r.Header.Get("Content-Type"), query.Get
	}

	if contentType == "" {
		var err error
		if body, contentType, err = sniff(body); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	key := param("key")
	if key == "" {
		key = storage.NewKey(param("prefix"), contentType)
	}

	res, err := h.relay.UploadFile(r.Context(), storage.UploadRequest{
		Body:        storage.Stream(body),
		Key:         key,
		ContentType: contentType,
		Bucket:      param("bucket"),
		Disposition: storage.Disposition(param("disposition")),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// relayRequest is the JSON body of POST /v1/relay.
type relayRequest struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Prefix      string `json:"prefix"`
	Bucket      string `json:"bucket"`
	ContentType string `json:"content_type"`
	Disposition string `json:"disposition"`
}

// handleRelay handles POST /v1/relay.
func (h *handler) handleRelay(w http.ResponseWriter, r *http.Request) {
	var req relayRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRelayRequestSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fail(w, r, err)
			return
		}
		h.fail(w, r, badRequest("invalid JSON body", err))
		return
	}

	key := req.Key
	if key == "" {
		key = storage.NewKey(req.Prefix, keyContentType(req.ContentType, req.URL))
	}

	res, err := h.relay.DownloadAndUpload(r.Context(), storage.DownloadRequest{
		URL:         req.URL,
		Key:         key,
		ContentType: req.ContentType,
		Bucket:      req.Bucket,
		Disposition: storage.Disposition(req.Disposition),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, err)
}

func badRequest(message string, err error) *HTTPError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return newHTTPError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large", err)
	}
	return newHTTPError(http.StatusBadRequest, CodeInvalidRequest, message, err)
}

// sniff detects the content type of r from its first bytes and returns a
// reader that still yields the whole payload.
func sniff(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", err
	}
	return br, storage.DetectContentType(head), nil
}

// keyContentType picks the type used for a generated key's extension:
// the declared type, else a guess from the source URL's file extension.
func keyContentType(declared, rawURL string) string {
	if declared != "" {
		return declared
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return mime.TypeByExtension(path.Ext(u.Path))
}
