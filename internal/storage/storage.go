// Package storage wraps the S3 API calls the panel needs
package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// Marks zero byte objects created to represent an empty folder
	PlaceholderMeta = "auri-folder-placeholder"

	// Shown when the object has no owner information
	DefaultUploader = "Sistema"
)

var ErrBucketNotFound = errors.New("bucket does not exist")

type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	Owner        string
}

type PresignedPut struct {
	URL       string
	Method    string
	Headers   http.Header
	ExpiresAt time.Time
}

// Bucket is the set of operations used on the configured bucket
type Bucket interface {
	Name() string
	// List returns at most maxKeys objects under prefix
	List(ctx context.Context, prefix string, maxKeys int) ([]Object, error)
	// Exists reports whether any object key starts with prefix
	Exists(ctx context.Context, prefix string) (bool, error)
	Delete(ctx context.Context, key string) error
	PutPlaceholder(ctx context.Context, key string) error
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignedPut, error)
	Check(ctx context.Context) error
}

// Location holds what's needed to build public links to objects
type Location struct {
	Bucket   string
	Region   string
	Endpoint string
	CDNHost  string
}

// EscapeKey escapes every path segment of key on its own so slashes survive
func EscapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(url.QueryEscape(p), "+", "%20")
	}

	return strings.Join(parts, "/")
}

// PublicURL returns the direct bucket URL of key
func (l Location) PublicURL(key string) string {
	if l.Endpoint != "" {
		return strings.TrimRight(l.Endpoint, "/") + "/" + l.Bucket + "/" + EscapeKey(key)
	}

	return "https://" + l.Bucket + ".s3." + l.Region + ".amazonaws.com/" + EscapeKey(key)
}

// CDNURL rewrites the public URL of key to the CDN host. Without a CDN host
// the public URL is returned.
func (l Location) CDNURL(key string) string {
	raw := l.PublicURL(key)

	host := strings.TrimSpace(l.CDNHost)
	if host == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Host = strings.TrimRight(strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://"), "/")
	if strings.HasPrefix(host, "https") {
		u.Scheme = "https"
	}

	return u.String()
}

// IsPlaceholder reports whether the object only marks a folder
func (o Object) IsPlaceholder() bool {
	return o.Size == 0 && strings.HasSuffix(o.Key, "/")
}
