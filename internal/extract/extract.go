package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// ExtractFunc turns raw uploaded bytes into plain text.
type ExtractFunc func(data []byte) (string, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ExtractFunc{}
)

func Register(ext string, fn ExtractFunc) {
	key := strings.ToLower(strings.TrimSpace(ext))
	if key == "" || fn == nil {
		return
	}
	registryMu.Lock()
	registry[key] = fn
	registryMu.Unlock()
}

// Extract dispatches on the filename extension. Unsupported types are a
// per-document error; callers record the rejection and move on.
func Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	registryMu.RLock()
	fn := registry[ext]
	registryMu.RUnlock()
	if fn == nil {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
	return fn(data)
}

func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[ext] != nil
}
