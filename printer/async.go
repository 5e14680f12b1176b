package printer

// Promise is the single outcome of an asynchronous call.
type Promise[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn in its own goroutine and returns a promise for its outcome.
// There is no cancellation: fn runs to completion even if nobody waits.
func Go[T any](fn func() (T, error)) *Promise[T] {
	p := &Promise[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.value, p.err = fn()
	}()
	return p
}

// GoErr is Go for calls without a result value.
func GoErr(fn func() error) *Promise[struct{}] {
	return Go(func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

// Done is closed once the outcome is available.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the outcome is available and returns it.
func (p *Promise[T]) Wait() (T, error) {
	<-p.done
	return p.value, p.err
}
