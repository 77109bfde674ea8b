package ecies

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/errors"
)

// DefaultBatchSize is the worker count used when NewBatcher gets size <= 0.
const DefaultBatchSize = 8

// Recipient is one addressee of a batch encryption.
type Recipient struct {
	ID    string
	Point curve.Point
}

// BatchResult is the outcome for the recipient at the same index.
type BatchResult struct {
	Recipient string
	Envelope  *Envelope
	Err       error
}

// Batcher fans one plaintext out to many recipients on a bounded goroutine
// pool. It is safe for concurrent use; Close releases the pool.
type Batcher struct {
	engine *Engine
	pool   *ants.Pool
}

// NewBatcher creates a batcher with size workers.
func NewBatcher(engine *Engine, size int) (*Batcher, error) {
	if engine == nil {
		engine = NewEngine()
	}
	if size <= 0 {
		size = DefaultBatchSize
	}
	pool, err := ants.NewPool(size, ants.WithPreAlloc(true))
	if err != nil {
		return nil, errors.Wrap(err, 500, "ecies: create batch pool")
	}
	return &Batcher{engine: engine, pool: pool}, nil
}

// Encrypt encrypts plaintext once per recipient. Results keep the order of
// recipients and failures are reported per recipient; a cancelled ctx marks
// the jobs that had not started with ctx.Err().
func (b *Batcher) Encrypt(ctx context.Context, c *curve.Curve, recipients []Recipient, plaintext []byte) []BatchResult {
	results := make([]BatchResult, len(recipients))
	var wg sync.WaitGroup

	for i, r := range recipients {
		results[i].Recipient = r.ID
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			results[i].Envelope, results[i].Err = b.engine.Encrypt(c, r.Point, plaintext)
		})
		if err != nil {
			wg.Done()
			results[i].Err = errors.Wrap(err, 503, "ecies: batch pool rejected job")
		}
	}

	wg.Wait()
	return results
}

// Running returns the number of busy workers.
func (b *Batcher) Running() int {
	return b.pool.Running()
}

// Close releases the worker pool.
func (b *Batcher) Close() {
	b.pool.Release()
}
