//go:build !deadlock

// Package syncutil provides the mutex types used by session and channel
// state. Plain sync mutexes are used unless the module is built with
// -tags=deadlock, which swaps in github.com/sasha-s/go-deadlock.
package syncutil

import "sync"

// Mutex is a sync.Mutex.
type Mutex struct {
	sync.Mutex
}

// RWMutex is a sync.RWMutex.
type RWMutex struct {
	sync.RWMutex
}

// DeadlockDetection reports whether lock-order checking is compiled in.
func DeadlockDetection() bool { return false }
