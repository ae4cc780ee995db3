package whisper

import "context"

// Pool bounds how many whisper inferences run at once so compute-bound
// transcription cannot starve the cheap pass-through endpoints.
type Pool struct {
	slots chan struct{}
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Acquire blocks until a slot is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) Release() {
	select {
	case <-p.slots:
	default:
	}
}

// InFlight returns the number of slots currently held.
func (p *Pool) InFlight() int {
	return len(p.slots)
}
