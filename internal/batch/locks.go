package batch

import (
	"path/filepath"
	"sync"
)

// pathLocks hands out one mutex per output path. Multiple models can
// legitimately emit to the same shared output file, so writers serialize on
// the canonicalized absolute path.
type pathLocks struct {
	m sync.Map // string -> *sync.Mutex
}

// lock acquires the mutex for path and returns its release func.
func (l *pathLocks) lock(path string) func() {
	key := canonicalPath(path)
	mu, _ := l.m.LoadOrStore(key, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}
