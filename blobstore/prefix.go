package blobstore

import (
	"context"
	"strings"
)

// PrefixStore scopes another BlobStore under a key prefix, so one bucket or
// directory can hold several archives.
type PrefixStore struct {
	inner  BlobStore
	prefix string
}

// NewPrefixStore returns a store that prepends prefix + "/" to every name.
// An empty prefix returns a pass-through store.
func NewPrefixStore(inner BlobStore, prefix string) *PrefixStore {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &PrefixStore{inner: inner, prefix: prefix}
}

// Prefix returns the normalized prefix including the trailing slash.
func (s *PrefixStore) Prefix() string { return s.prefix }

func (s *PrefixStore) Open(ctx context.Context, name string) (Blob, error) {
	return s.inner.Open(ctx, s.prefix+name)
}

func (s *PrefixStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	return s.inner.Create(ctx, s.prefix+name)
}

func (s *PrefixStore) Put(ctx context.Context, name string, data []byte) error {
	return s.inner.Put(ctx, s.prefix+name, data)
}

func (s *PrefixStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, s.prefix+name)
}

// List strips the prefix from returned names.
func (s *PrefixStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.inner.List(ctx, s.prefix+prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.TrimPrefix(n, s.prefix))
	}
	return out, nil
}
