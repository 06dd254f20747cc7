package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// uploadTimeout bounds a single object upload.
const uploadTimeout = 2 * time.Minute

// GCSSink writes each record as a JSON object in a bucket.
type GCSSink struct {
	client    *storage.Client
	bucket    string
	newWriter func(ctx context.Context, object string) io.WriteCloser
	newReader func(ctx context.Context, object string) (io.ReadCloser, error)
}

// NewGCSSink creates a sink for bucket using Application Default Credentials.
func NewGCSSink(ctx context.Context, bucket string) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSSink: create storage client: %w", err)
	}

	bkt := client.Bucket(bucket)
	return &GCSSink{
		client: client,
		bucket: bucket,
		newWriter: func(ctx context.Context, object string) io.WriteCloser {
			w := bkt.Object(object).NewWriter(ctx)
			w.ContentType = "application/json"
			return w
		},
		newReader: func(ctx context.Context, object string) (io.ReadCloser, error) {
			return bkt.Object(object).NewReader(ctx)
		},
	}, nil
}

// Name implements Sink.
func (s *GCSSink) Name() string { return "gcs" }

// URI returns the gs:// address of an object in the sink's bucket.
func (s *GCSSink) URI(object string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, object)
}

// Store implements Sink.
func (s *GCSSink) Store(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("GCSSink.Store: marshal record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.newWriter(ctx, rec.ObjectName())
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCSSink.Store: write %s: %w", s.URI(rec.ObjectName()), err)
	}
	// The upload is only committed on Close.
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCSSink.Store: close %s: %w", s.URI(rec.ObjectName()), err)
	}
	return nil
}

// Fetch reads an archived record back.
func (s *GCSSink) Fetch(ctx context.Context, object string) (*Record, error) {
	r, err := s.newReader(ctx, object)
	if err != nil {
		return nil, fmt.Errorf("GCSSink.Fetch: open %s: %w", s.URI(object), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("GCSSink.Fetch: read %s: %w", s.URI(object), err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("GCSSink.Fetch: decode %s: %w", s.URI(object), err)
	}
	return &rec, nil
}

// Close releases the storage client.
func (s *GCSSink) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
