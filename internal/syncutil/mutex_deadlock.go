//go:build deadlock

// Package syncutil provides the mutex types used by session and channel
// state. This file is compiled with -tags=deadlock and reports lock-order
// inversions and long waits through github.com/sasha-s/go-deadlock.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// lockTimeout is how long a lock wait may last before it is reported.
const lockTimeout = 30 * time.Second

func init() {
	deadlock.Opts.DeadlockTimeout = lockTimeout
}

// Mutex is a deadlock.Mutex.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex is a deadlock.RWMutex.
type RWMutex struct {
	deadlock.RWMutex
}

// DeadlockDetection reports whether lock-order checking is compiled in.
func DeadlockDetection() bool { return true }
