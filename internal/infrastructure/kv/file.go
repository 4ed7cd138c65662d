package kv

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

const fileSuffix = ".json"

type fileRecord struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileStore writes one JSON document per key under dir. Expiry is checked on
// read, so expired files linger until the next access.
type FileStore struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("file store dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create store dir %s", dir)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(s.path(key))
	if err != nil {
		return nil, err
	}
	if isExpired(rec.ExpiresAt, s.now()) {
		_ = os.Remove(s.path(key))
		return nil, ErrNotFound
	}
	return rec.Value, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	raw, err := sonic.Marshal(fileRecord{Key: key, Value: value, ExpiresAt: expiry(s.now(), ttl)})
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "write %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "close %s", key)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "rename %s", key)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

func (s *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read store dir %s", s.dir)
	}

	now := s.now()
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileSuffix))
		if err != nil || !strings.HasPrefix(key, prefix) {
			continue
		}
		rec, err := s.read(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		if isExpired(rec.ExpiresAt, now) {
			_ = os.Remove(filepath.Join(s.dir, name))
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+fileSuffix)
}

func (s *FileStore) read(path string) (fileRecord, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fileRecord{}, ErrNotFound
	}
	if err != nil {
		return fileRecord{}, errors.Wrapf(err, "read %s", path)
	}
	var rec fileRecord
	if err := sonic.Unmarshal(raw, &rec); err != nil {
		return fileRecord{}, errors.Wrapf(err, "decode %s", path)
	}
	return rec, nil
}
