package blobstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
	createdAt   time.Time
	updatedAt   time.Time
	seq         int64
}

// Memory is an in-process Store used by tests and local runs.
type Memory struct {
	mu      sync.Mutex
	objects map[string]*memObject
	seq     int64

	// URLFor, when set, produces signed URLs. The default points at an
	// unroutable host so accidental fetches fail fast.
	URLFor func(path string, ttl time.Duration) (string, error)
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]*memObject)}
}

func (m *Memory) Put(ctx context.Context, path string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; ok {
		return fmt.Errorf("%w: %s", ErrObjectExists, path)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	now := time.Now()
	m.seq++
	m.objects[path] = &memObject{
		data:        buf,
		contentType: contentType,
		createdAt:   now,
		updatedAt:   now,
		seq:         m.seq,
	}
	return nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var objects []ObjectInfo
	seqs := make(map[string]int64)
	for path, obj := range m.objects {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		objects = append(objects, ObjectInfo{
			Path:      path,
			Size:      int64(len(obj.data)),
			CreatedAt: obj.createdAt,
			UpdatedAt: obj.updatedAt,
		})
		seqs[path] = obj.seq
	}
	sort.SliceStable(objects, func(i, j int) bool {
		if !objects[i].CreatedAt.Equal(objects[j].CreatedAt) {
			return objects[i].CreatedAt.After(objects[j].CreatedAt)
		}
		return seqs[objects[i].Path] > seqs[objects[j].Path]
	})
	return objects, nil
}

func (m *Memory) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	_, ok := m.objects[path]
	urlFor := m.URLFor
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrObjectNotExist, path)
	}
	if urlFor != nil {
		return urlFor(path, ttl)
	}
	return fmt.Sprintf("https://storage.invalid/%s?expires=%d", path, time.Now().Add(ttl).Unix()), nil
}

func (m *Memory) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotExist, path)
	}
	delete(m.objects, path)
	return nil
}

// Object returns the stored bytes and content type for a path, for use
// by test fixtures serving blob content over HTTP.
func (m *Memory) Object(path string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[path]
	if !ok {
		return nil, "", false
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, obj.contentType, true
}
