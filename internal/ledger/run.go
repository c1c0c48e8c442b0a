package ledger

import "context"

// Enqueue schedules req for the Run loop and returns a channel that
// receives exactly one Result. It fails with ErrStopped after Stop or
// after Run has returned.
func (l *Ledger) Enqueue(ctx context.Context, req Request) (<-chan Result, error) {
	reply := make(chan Result, 1)
	if !l.queue.Enqueue(pending{ctx: ctx, req: req, reply: reply}) {
		return nil, ErrStopped
	}
	return reply, nil
}

// Run applies queued submissions in FIFO order until ctx is cancelled or
// Stop is called. Submissions still queued when ctx is cancelled receive
// the context error.
//
// Must be called from exactly one goroutine.
func (l *Ledger) Run(ctx context.Context) error {
	l.logger.Info("ledger starting")

	for {
		if p, ok := l.queue.TryDequeue(); ok {
			receipt, err := l.Submit(p.ctx, p.req)
			p.reply <- Result{Receipt: receipt, Err: err}
			continue
		}

		select {
		case <-ctx.Done():
			l.logger.Info("ledger stopping: context cancelled")
			l.queue.Close()
			for {
				p, ok := l.queue.TryDequeue()
				if !ok {
					break
				}
				p.reply <- Result{Err: ctx.Err()}
			}
			return ctx.Err()

		case <-l.queue.Wait():
			// A closed signal channel fires immediately; stop once drained.
			if l.queue.Drained() {
				l.logger.Info("ledger stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns after draining what was already queued.
func (l *Ledger) Stop() {
	l.queue.Close()
}
