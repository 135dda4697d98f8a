package blobstore

import (
	"checksheet-backend/internal/domain/blob"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	dataPrefix = "blob/data/"
	typePrefix = "blob/type/"
)

// BadgerStore keeps photo bytes in the embedded badger database. References
// are PublicPrefix + path, which the photo route serves back.
type BadgerStore struct {
	db           *badger.DB
	publicPrefix string
}

var _ blob.Store = (*BadgerStore)(nil)

func NewBadgerStore(db *badger.DB, publicPrefix string) *BadgerStore {
	if !strings.HasSuffix(publicPrefix, "/") {
		publicPrefix += "/"
	}
	return &BadgerStore{db: db, publicPrefix: publicPrefix}
}

func (s *BadgerStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", errors.New("blob path is empty")
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dataPrefix+path), data); err != nil {
			return err
		}
		return txn.Set([]byte(typePrefix+path), []byte(contentType))
	})
	if err != nil {
		return "", fmt.Errorf("store blob %s: %w", path, err)
	}
	return s.publicPrefix + path, nil
}

// Delete removes the blob behind ref. Unknown refs are not an error.
func (s *BadgerStore) Delete(ctx context.Context, ref string) error {
	path, ok := s.pathOf(ref)
	if !ok {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(dataPrefix + path)); err != nil {
			return err
		}
		return txn.Delete([]byte(typePrefix + path))
	})
}

func (s *BadgerStore) Open(ctx context.Context, ref string) ([]byte, string, error) {
	path, ok := s.pathOf(ref)
	if !ok {
		return nil, "", blob.ErrNotFound
	}
	var (
		data        []byte
		contentType string
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dataPrefix + path))
		if err != nil {
			return err
		}
		if data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get([]byte(typePrefix + path))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err == nil {
			return item.Value(func(val []byte) error {
				contentType = string(val)
				return nil
			})
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, "", blob.ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func (s *BadgerStore) pathOf(ref string) (string, bool) {
	if !strings.HasPrefix(ref, s.publicPrefix) {
		return "", false
	}
	p := strings.TrimPrefix(ref, s.publicPrefix)
	return p, p != "" && !strings.Contains(p, "..")
}
