// Package storage holds the blob adapters behind ports.PhotoStorage.
package storage

import (
	"net/url"
	"strings"
)

// PublicURL joins a base URL and an object key, escaping each key segment.
func PublicURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
