package blobstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS stores blobs in a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS opens a storage client for the bucket. An empty credentials file
// falls back to application default credentials.
func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Put writes the blob only if the path is still empty. A precondition
// failure maps to ErrObjectExists.
func (g *GCS) Put(ctx context.Context, path string, data []byte, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(path).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return fmt.Errorf("%w: %s", ErrObjectExists, path)
		}
		return fmt.Errorf("store object %s: %w", path, err)
	}
	return nil
}

// List returns objects under the prefix, newest first.
func (g *GCS) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var objects []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects under %s: %w", prefix, err)
		}
		// folder placeholder object
		if attrs.Name == prefix {
			continue
		}
		objects = append(objects, ObjectInfo{
			Path:      attrs.Name,
			Size:      attrs.Size,
			CreatedAt: attrs.Created,
			UpdatedAt: attrs.Updated,
		})
	}
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].CreatedAt.After(objects[j].CreatedAt)
	})
	return objects, nil
}

// SignedURL issues a V4 GET link, failing with ErrObjectNotExist when
// the path holds no blob. Signing never contacts the bucket, hence the
// attrs probe.
func (g *GCS) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	obj := g.client.Bucket(g.bucket).Object(path)
	if _, err := obj.Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("%w: %s", ErrObjectNotExist, path)
		}
		return "", fmt.Errorf("stat object %s: %w", path, err)
	}
	url, err := g.client.Bucket(g.bucket).SignedURL(path, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign url for %s: %w", path, err)
	}
	return url, nil
}

// Remove deletes the blob.
func (g *GCS) Remove(ctx context.Context, path string) error {
	err := g.client.Bucket(g.bucket).Object(path).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrObjectNotExist, path)
	}
	if err != nil {
		return fmt.Errorf("delete object %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
