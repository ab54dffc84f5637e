package storage

import (
	"fmt"
	"strings"
)

// JoinURL joins base and path with exactly one slash, however many
// trailing slashes base has or leading slashes path has.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// objectLocation returns the storage-side URL of an object.
// Precedence: public domain, custom endpoint (path style), AWS virtual-hosted.
func (r *Relay) objectLocation(bucket, key string) string {
	if r.cfg.PublicDomain != "" {
		return JoinURL(r.cfg.PublicDomain, key)
	}

	if r.cfg.Endpoint != "" {
		return JoinURL(JoinURL(r.cfg.Endpoint, bucket), key)
	}

	return JoinURL(fmt.Sprintf("https://%s.s3.amazonaws.com", bucket), key)
}

// publicURL returns the externally reachable URL of an object,
// falling back to its location when no public domain is configured.
func (r *Relay) publicURL(key, location string) string {
	if r.cfg.PublicDomain != "" {
		return JoinURL(r.cfg.PublicDomain, key)
	}
	return location
}

// filenameOf returns the last path segment of key.
func filenameOf(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
