// Package storagetest provides an in-memory storage.Bucket for tests
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"bitwise74/bucket-panel/internal/storage"
)

type Bucket struct {
	mu      sync.Mutex
	name    string
	objects map[string]storage.Object
	data    map[string][]byte
	meta    map[string]map[string]string

	// Err, when set, is returned by every call
	Err error
}

func New(name string) *Bucket {
	return &Bucket{
		name:    name,
		objects: make(map[string]storage.Object),
		data:    make(map[string][]byte),
		meta:    make(map[string]map[string]string),
	}
}

// Factory returns a storage.Factory that always hands out b
func (b *Bucket) Factory() storage.Factory {
	return func(context.Context, storage.Credentials) (storage.Bucket, error) {
		return b, nil
	}
}

// Put stores an object directly
func (b *Bucket) Put(key string, size int64, modified time.Time, owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = storage.Object{Key: key, Size: size, LastModified: modified, Owner: owner}
}

func (b *Bucket) Object(key string) (storage.Object, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.objects[key]
	return o, ok
}

func (b *Bucket) Data(key string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.data[key]
}

func (b *Bucket) Meta(key string) map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.meta[key]
}

func (b *Bucket) Name() string {
	return b.name
}

func (b *Bucket) Check(context.Context) error {
	return b.Err
}

func (b *Bucket) List(_ context.Context, prefix string, maxKeys int) ([]storage.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return nil, b.Err
	}

	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	out := make([]storage.Object, 0, len(keys))
	for _, k := range keys {
		if len(out) >= maxKeys {
			break
		}

		out = append(out, b.objects[k])
	}

	return out, nil
}

func (b *Bucket) Exists(_ context.Context, prefix string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return false, b.Err
	}

	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			return true, nil
		}
	}

	return false, nil
}

func (b *Bucket) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}

	delete(b.objects, key)
	delete(b.data, key)
	delete(b.meta, key)

	return nil
}

func (b *Bucket) PutPlaceholder(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}

	b.objects[key] = storage.Object{Key: key, LastModified: time.Now(), Owner: storage.DefaultUploader}
	b.meta[key] = map[string]string{storage.PlaceholderMeta: "true"}

	return nil
}

func (b *Bucket) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}

	b.objects[key] = storage.Object{Key: key, Size: int64(len(data)), LastModified: time.Now(), Owner: storage.DefaultUploader}
	b.data[key] = bytes.Clone(data)
	b.meta[key] = map[string]string{"content-type": contentType}

	return nil
}

func (b *Bucket) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (*storage.PresignedPut, error) {
	if b.Err != nil {
		return nil, b.Err
	}

	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	return &storage.PresignedPut{
		URL:       fmt.Sprintf("https://%s.example.test/%s?X-Amz-Expires=%d", b.name, storage.EscapeKey(key), int(ttl.Seconds())),
		Method:    http.MethodPut,
		Headers:   h,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}
