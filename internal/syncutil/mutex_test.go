package syncutil

import (
	"sync"
	"testing"
)

func TestMutex_Counter(t *testing.T) {
	var (
		wg sync.WaitGroup
		m  Mutex
		n  int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Lock()
				n++
				m.Unlock()
			}
		}()
	}
	wg.Wait()
	if n != 800 {
		t.Errorf("n = %d, want 800", n)
	}
}

func TestRWMutex_Readers(t *testing.T) {
	var m RWMutex
	m.RLock()

	// A second reader on another goroutine is admitted while the first holds the lock.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.RLock()
		m.RUnlock()
	}()
	wg.Wait()

	m.RUnlock()
	m.Lock()
	m.Unlock()
	t.Logf("deadlock detection: %v", DeadlockDetection())
}
