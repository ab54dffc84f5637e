package storage

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NewKey builds a fresh object key of the form {prefix}/{uuidv7}{ext}.
// Each prefix segment is sanitized; the extension comes from contentType
// and falls back to ".bin".
func NewKey(prefix, contentType string) string {
	var parts []string
	for seg := range strings.SplitSeq(prefix, "/") {
		if seg = sanitizePathSegment(seg); seg != "" {
			parts = append(parts, seg)
		}
	}

	ext := ExtFromMIME(contentType)
	if ext == "" {
		ext = ".bin"
	}

	return strings.Join(append(parts, uuid.Must(uuid.NewV7()).String()+ext), "/")
}

// pathSegmentRegex matches characters that are not safe for path segments.
var pathSegmentRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizePathSegment strips traversal sequences and unsafe characters.
func sanitizePathSegment(segment string) string {
	segment = strings.Trim(segment, " /\\")
	segment = strings.ReplaceAll(segment, "..", "")
	segment = pathSegmentRegex.ReplaceAllString(segment, "_")
	return url.PathEscape(segment)
}
