package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/docqa/internal/config"
)

// Store archives the raw uploaded bytes of ingested documents. The
// archive is write-only from the service's point of view; operators
// read it out of band when a corpus has to be rebuilt.
type Store interface {
	Type() string
	Save(ctx context.Context, key string, r ReadSeekCloser, size int64) error
}

type ReadSeekCloser interface {
	Read(p []byte) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
	Close() error
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.FileStoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported file store: %s", cfg.Type)
	}
	switch key {
	case "local":
		return factory(map[string]interface{}{"dir": cfg.Dir})
	case "s3":
		return factory(cfg.S3)
	default:
		return factory(nil)
	}
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("file store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode file store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode file store config: %w", err)
	}
	return nil
}

type bytesFile struct {
	*bytes.Reader
}

func (bytesFile) Close() error { return nil }

// BytesFile wraps an in-memory payload as a seekable file for Save.
func BytesFile(data []byte) ReadSeekCloser {
	return bytesFile{bytes.NewReader(data)}
}
