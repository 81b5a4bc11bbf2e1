package utils

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

const (
	StorageProviderDB     = "db"
	StorageProviderGCS    = "gcs"
	StorageProviderMinio  = "minio"
	StorageProviderMemory = "memory"
)

// ObjectStore keeps uploaded binaries (product images, logos, invoice files).
// Get returns ErrorRecordNotFound for unknown keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}

var (
	objectStore   ObjectStore
	objectStoreMu sync.Mutex
)

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderDB
	}
	return provider
}

// SetObjectStore replaces the process-wide store. Used by tests.
func SetObjectStore(s ObjectStore) {
	objectStoreMu.Lock()
	defer objectStoreMu.Unlock()
	objectStore = s
}

// GetObjectStore returns the store selected by STORAGE_PROVIDER.
func GetObjectStore() (ObjectStore, error) {
	objectStoreMu.Lock()
	defer objectStoreMu.Unlock()
	if objectStore != nil {
		return objectStore, nil
	}

	var (
		s   ObjectStore
		err error
	)
	switch GetStorageProvider() {
	case StorageProviderDB:
		s = &DBObjectStore{}
	case StorageProviderGCS:
		s, err = NewGCSObjectStore()
	case StorageProviderMinio:
		s, err = NewMinioObjectStore()
	case StorageProviderMemory:
		s = NewMemoryObjectStore()
	default:
		err = fmt.Errorf("unknown storage provider %q", GetStorageProvider())
	}
	if err != nil {
		return nil, err
	}
	objectStore = s
	return s, nil
}
