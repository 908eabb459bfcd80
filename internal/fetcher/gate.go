package fetcher

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate admits one fetch attempt at a time, process wide
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate returns an open gate
func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the gate is free or ctx ends
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release frees the gate for the next attempt
func (g *Gate) Release() {
	g.sem.Release(1)
}
