package docker

import (
	"time"
)

// Config holds the configuration for containerised execution.
type Config struct {
	// Image is the interpreter image runs execute in.
	Image string
	// MemoryLimit is the container memory cap in bytes.
	MemoryLimit int64
	// CPULimit is the number of CPUs the container may use.
	CPULimit float64
	// MaxTimeout caps per-request timeouts. Zero means no cap.
	MaxTimeout time.Duration
	// PoolSize is the number of pre-warmed containers to keep ready.
	PoolSize int
}

// DefaultConfig provides sensible defaults for a Python sandbox.
func DefaultConfig() Config {
	return Config{
		Image:       "python:3.12-alpine",
		MemoryLimit: 128 * 1024 * 1024,
		CPULimit:    0.5,
		MaxTimeout:  30 * time.Second,
		PoolSize:    3,
	}
}
