// Package internal holds helpers shared by the UVM packages.
package internal

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerLock sync.RWMutex
)

// Logger returns the shared logger. It is a no-op logger until SetLogger
// installs another one.
func Logger() *zap.Logger {
	loggerLock.RLock()
	l := logger
	loggerLock.RUnlock()
	if l != nil {
		return l
	}

	loggerLock.Lock()
	defer loggerLock.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// SetLogger replaces the shared logger. A nil logger restores the no-op logger.
func SetLogger(l *zap.Logger) {
	loggerLock.Lock()
	defer loggerLock.Unlock()
	logger = l
}
