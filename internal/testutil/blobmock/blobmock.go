package blobmock

import (
	"checksheet-backend/internal/domain/blob"
	"context"
	"sync"
)

var _ blob.Store = (*Store)(nil)

// Store is an in-memory blob.Store. UploadFn and DeleteFn override the
// default behaviour when set.
type Store struct {
	mu      sync.Mutex
	objects map[string][]byte
	Deleted []string

	UploadFn func(ctx context.Context, path string, data []byte, contentType string) (string, error)
	DeleteFn func(ctx context.Context, ref string) error
}

func New() *Store { return &Store{objects: map[string][]byte{}} }

const RefPrefix = "/photos/"

func (s *Store) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if s.UploadFn != nil {
		return s.UploadFn(ctx, path, data, contentType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[RefPrefix+path] = append([]byte(nil), data...)
	return RefPrefix + path, nil
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	s.Deleted = append(s.Deleted, ref)
	delete(s.objects, ref)
	s.mu.Unlock()
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, ref)
	}
	return nil
}

func (s *Store) Open(ctx context.Context, ref string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[ref]
	if !ok {
		return nil, "", blob.ErrNotFound
	}
	return b, "image/jpeg", nil
}

// Refs lists stored references.
func (s *Store) Refs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}
