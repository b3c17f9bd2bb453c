package storage

import (
	"context"
	"sync"
)

type Factory func(ctx context.Context, c Credentials) (Bucket, error)

// S3Factory builds real S3 clients
func S3Factory(ctx context.Context, c Credentials) (Bucket, error) {
	return NewS3(ctx, c)
}

// Provider keeps one client around and rebuilds it whenever the stored
// credentials change
type Provider struct {
	mu      sync.Mutex
	factory Factory
	creds   Credentials
	bucket  Bucket
}

func NewProvider(f Factory) *Provider {
	return &Provider{factory: f}
}

func (p *Provider) Get(ctx context.Context, c Credentials) (Bucket, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bucket != nil && p.creds == c {
		return p.bucket, nil
	}

	b, err := p.factory(ctx, c)
	if err != nil {
		return nil, err
	}

	p.creds = c
	p.bucket = b

	return b, nil
}
