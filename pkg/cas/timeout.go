package cas

import (
	"context"
)

type result struct {
	v   *Value
	err error
}

// RunWithTimeout runs fn on its own goroutine and waits for it or for ctx.
// When ctx ends first the call is abandoned: fn keeps running to completion
// and whatever Value it eventually returns is freed. The context passed to
// fn must not be freed while an abandoned call may still use it.
func RunWithTimeout(ctx context.Context, fn func() (*Value, error)) (*Value, error) {
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.v != nil {
				r.v.Free()
			}
		}()
		return nil, ctx.Err()
	}
}
