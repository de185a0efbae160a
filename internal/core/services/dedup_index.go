package services

import (
	"sync"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

// DedupIndex holds in-flight registration reservations. It guards against
// concurrent duplicates inside one process; the store's unique constraints
// remain the authoritative check.
type DedupIndex struct {
	mu       sync.Mutex
	reserved map[string]struct{}
}

func NewDedupIndex() *DedupIndex {
	return &DedupIndex{reserved: make(map[string]struct{})}
}

// Reserve claims key. Only the first caller succeeds until the key is released.
func (d *DedupIndex) Reserve(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.reserved[key]; ok {
		return domain.ErrAlreadyRegistered
	}
	d.reserved[key] = struct{}{}
	return nil
}

func (d *DedupIndex) Release(key string) {
	d.mu.Lock()
	delete(d.reserved, key)
	d.mu.Unlock()
}

func (d *DedupIndex) Reserved(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.reserved[key]
	return ok
}

func (d *DedupIndex) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.reserved)
}
