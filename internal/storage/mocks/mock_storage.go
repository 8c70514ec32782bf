package mocks

import (
	"bytes"
	"context"
	"io"
	"sync"

	"sikap/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage. Put drains the reader
// so tests can inspect what would have been written via Written. A Put
// return value may be a storage.ObjectInfo or a func computing one, with or
// without the body reader.
type MockStorage struct {
	mock.Mock

	mu      sync.Mutex
	written map[string][]byte
}

func (m *MockStorage) Put(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	var body []byte
	if r != nil {
		body, _ = io.ReadAll(r)
	}
	args := m.Called(ctx, key, bytes.NewReader(body), opt)

	var info storage.ObjectInfo
	switch v := args.Get(0).(type) {
	case func(context.Context, string, io.Reader, storage.PutObjectOptions) storage.ObjectInfo:
		info = v(ctx, key, bytes.NewReader(body), opt)
	case func(context.Context, string, storage.PutObjectOptions) storage.ObjectInfo:
		info = v(ctx, key, opt)
	default:
		info = v.(storage.ObjectInfo)
	}
	if err := args.Error(1); err != nil {
		return info, err
	}

	m.mu.Lock()
	if m.written == nil {
		m.written = make(map[string][]byte)
	}
	m.written[key] = body
	m.mu.Unlock()
	return info, nil
}

// Written returns the bytes of the last successful Put under key.
func (m *MockStorage) Written(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.written[key]
	return b, ok
}

// Keys lists every key with a successful Put.
func (m *MockStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.written))
	for k := range m.written {
		keys = append(keys, k)
	}
	return keys
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
