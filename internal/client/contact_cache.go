package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sosbeacon/server/internal/validation"
)

// ContactCache keeps the last saved contact for the SOS action
type ContactCache interface {
	Load() (validation.PhonePayload, bool, error)
	Save(p validation.PhonePayload) error
}

// MemoryContactCache keeps the contact for the lifetime of the process
type MemoryContactCache struct {
	mu      sync.Mutex
	contact *validation.PhonePayload
}

// NewMemoryContactCache creates an empty cache
func NewMemoryContactCache() *MemoryContactCache {
	return &MemoryContactCache{}
}

func (c *MemoryContactCache) Load() (validation.PhonePayload, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contact == nil {
		return validation.PhonePayload{}, false, nil
	}
	return *c.contact, true, nil
}

func (c *MemoryContactCache) Save(p validation.PhonePayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contact = &p
	return nil
}

// FileContactCache stores the contact as JSON so separate CLI runs share it
type FileContactCache struct {
	Path string
}

func (c FileContactCache) Load() (validation.PhonePayload, bool, error) {
	raw, err := os.ReadFile(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		return validation.PhonePayload{}, false, nil
	}
	if err != nil {
		return validation.PhonePayload{}, false, fmt.Errorf("read contact cache: %w", err)
	}

	var p validation.PhonePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return validation.PhonePayload{}, false, fmt.Errorf("decode contact cache: %w", err)
	}
	return p, p.PhoneNumber != "", nil
}

func (c FileContactCache) Save(p validation.PhonePayload) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode contact cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o700); err != nil {
		return fmt.Errorf("create contact cache dir: %w", err)
	}
	tmp := c.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write contact cache: %w", err)
	}
	return os.Rename(tmp, c.Path)
}
