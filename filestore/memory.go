package filestore

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type MemoryFileStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]Object
}

// NewMemoryFileStore keeps objects in process memory. Objects under other
// buckets can be seeded with Put.
func NewMemoryFileStore(bucket string) *MemoryFileStore {
	return &MemoryFileStore{
		bucket:  bucket,
		objects: map[string]Object{},
	}
}

func (s *MemoryFileStore) Bucket() string {
	return s.bucket
}

func (s *MemoryFileStore) Put(obj Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj.Data = append([]byte(nil), obj.Data...)
	s.objects[obj.Bucket+"/"+obj.Key] = obj
}

func (s *MemoryFileStore) UploadFileData(ctx context.Context, data []byte, contentType, key string) error {
	s.Put(Object{Bucket: s.bucket, Key: key, ContentType: contentType, Data: data})
	return nil
}

func (s *MemoryFileStore) UploadFile(ctx context.Context, reader io.Reader, contentType, key string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("fail to read upload body: %w", err)
	}
	return s.UploadFileData(ctx, data, contentType, key)
}

func (s *MemoryFileStore) GetObject(ctx context.Context, bucket, key string) (*Object, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return &obj, nil
}

func (s *MemoryFileStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for _, obj := range s.objects {
		if obj.Bucket == s.bucket {
			keys = append(keys, obj.Key)
		}
	}
	return keys
}
