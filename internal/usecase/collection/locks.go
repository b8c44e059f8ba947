package collection

import (
	"sync"

	"github.com/kailas-cloud/facetdex/internal/domain"
)

// importLocks is the in-process advisory lock held by a running import.
type importLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func newImportLocks() *importLocks {
	return &importLocks{held: make(map[string]bool)}
}

// acquire takes the lock or fails immediately with domain.ErrCollectionBusy.
// The returned release is idempotent.
func (l *importLocks) acquire(name string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, domain.ErrCollectionBusy
	}
	l.held[name] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
	}, nil
}

func (l *importLocks) busy(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[name]
}
