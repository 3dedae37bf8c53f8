// Package stream provides lazy, single-subscription result streams that carry exactly one value
// or one error. Nothing runs until the stream is subscribed, and cancelling the subscriber's
// context cancels the running operation.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadySubscribed completes every subscription after the first one.
var ErrAlreadySubscribed = errors.New("stream already subscribed")

// Result is the single terminal signal of a stream.
type Result[T any] struct {
	Value T
	Err   error
}

// Stream is a deferred operation producing one T. A Stream may be subscribed once.
type Stream[T any] struct {
	op         func(ctx context.Context) (T, error)
	subscribed *atomic.Bool
}

// New wraps op into a stream. op receives the subscriber's context.
func New[T any](op func(ctx context.Context) (T, error)) *Stream[T] {
	return &Stream[T]{op: op, subscribed: atomic.NewBool(false)}
}

// Just returns an already-complete stream holding v.
func Just[T any](v T) *Stream[T] {
	return New(func(context.Context) (T, error) { return v, nil })
}

// Fail returns a stream that completes with err.
func Fail[T any](err error) *Stream[T] {
	return New(func(context.Context) (T, error) {
		var zero T
		return zero, err
	})
}

// Subscribe starts the operation in its own goroutine and returns a channel that receives exactly
// one Result and is then closed. The call never blocks.
func (s *Stream[T]) Subscribe(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T], 1)
	if !s.subscribed.CompareAndSwap(false, true) {
		out <- Result[T]{Err: ErrAlreadySubscribed}
		close(out)
		return out
	}
	go func() {
		defer close(out)
		out <- s.run(ctx)
	}()
	return out
}

func (s *Stream[T]) run(ctx context.Context) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: fmt.Errorf("stream operation panicked: %v", r)}
		}
	}()
	v, err := s.op(ctx)
	return Result[T]{Value: v, Err: err}
}

// Await subscribes and waits for the result. When ctx ends first the operation is cancelled and
// ctx.Err() is returned.
func (s *Stream[T]) Await(ctx context.Context) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	select {
	case r := <-s.Subscribe(ctx):
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Map transforms the value of s. Errors pass through untouched and fn is not called.
func Map[T, R any](s *Stream[T], fn func(T) (R, error)) *Stream[R] {
	return New(func(ctx context.Context) (R, error) {
		v, err := s.Await(ctx)
		if err != nil {
			var zero R
			return zero, err
		}
		return fn(v)
	})
}

// Merge subscribes all streams concurrently and collects their values in completion order.
// The first failure fails the merged stream, cancels the others and discards partial results.
// Merging no streams yields an empty, non-nil slice.
func Merge[T any](streams []*Stream[T]) *Stream[[]T] {
	return New(func(ctx context.Context) ([]T, error) {
		if len(streams) == 0 {
			return []T{}, nil
		}
		g, gctx := errgroup.WithContext(ctx)
		var mu sync.Mutex
		out := make([]T, 0, len(streams))
		for _, s := range streams {
			g.Go(func() error {
				v, err := s.Await(gctx)
				if err != nil {
					return err
				}
				mu.Lock()
				out = append(out, v)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	})
}
