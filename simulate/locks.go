package simulate

import "sync"

// runLocks serializes generation runs per medicine. Generation mutates the
// running stock level and order sequence, so two concurrent runs against the
// same medicine would interleave partial writes.
type runLocks struct {
	mu     sync.Mutex
	active map[uint]struct{}
}

func newRunLocks() *runLocks {
	return &runLocks{active: make(map[uint]struct{})}
}

func (l *runLocks) tryAcquire(medicineID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.active[medicineID]; busy {
		return false
	}
	l.active[medicineID] = struct{}{}
	return true
}

func (l *runLocks) release(medicineID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, medicineID)
}

// generationLocks is shared by all generators in the process.
var generationLocks = newRunLocks()
