// Package flight collapses concurrent same-key operations into a
// single in-flight execution shared by all callers.
//
// The gate is strictly process-local: it never prevents duplicate work
// across independent processes. Cross-process duplication is tolerated
// upstream because artifact writes are idempotent full overwrites.
package flight

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Gate deduplicates concurrent calls per key. The zero value is ready
// to use and safe for concurrent use.
type Gate struct {
	group singleflight.Group
}

// Do executes fn for key unless a call for the same key is already in
// flight, in which case it waits for and returns that call's result,
// including its failure. Once the in-flight call completes the key is
// released and a later Do starts a fresh invocation.
//
// Do reports won=true only for the caller whose fn actually ran.
// A context cancellation abandons the wait for this caller only; the
// in-flight execution keeps running for the remaining callers.
func (g *Gate) Do(ctx context.Context, key string, fn func() (any, error)) (any, bool, error) {
	var ran atomic.Bool
	ch := g.group.DoChan(key, func() (any, error) {
		ran.Store(true)
		return fn()
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		return res.Val, ran.Load(), res.Err
	}
}

// Forget removes any in-flight record for key so the next Do starts a
// fresh invocation instead of joining an earlier one.
func (g *Gate) Forget(key string) {
	g.group.Forget(key)
}
