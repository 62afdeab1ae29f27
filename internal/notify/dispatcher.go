package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/ClientReviews/pkg/logger"
)

// DefaultTimeout bounds a single send.
const DefaultTimeout = 5 * time.Second

// Dispatcher sends notifications in the background. Failures are logged and
// dropped; nothing is retried.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. A non-positive timeout uses
// DefaultTimeout.
func NewDispatcher(sender Sender, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		sender:  sender,
		timeout: timeout,
		logger:  logger,
	}
}

// Dispatch sends msg on a new goroutine and returns immediately. The send
// keeps ctx's values but not its cancellation, so it outlives the request.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		d.send(sendCtx, msg)
	}()
}

func (d *Dispatcher) send(ctx context.Context, msg Message) {
	start := time.Now()
	log := logger.WithContext(ctx, d.logger)

	if err := d.sender.Send(ctx, msg); err != nil {
		notificationsTotal.WithLabelValues(d.sender.Name(), resultFailed).Inc()
		log.Warn("notification failed",
			slog.String("sender", d.sender.Name()),
			slog.String("subject", msg.Subject),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return
	}

	notificationsTotal.WithLabelValues(d.sender.Name(), resultSent).Inc()
	log.Debug("notification sent",
		slog.String("sender", d.sender.Name()),
		slog.Duration("elapsed", time.Since(start)),
	)
}

// Wait blocks until every dispatched send has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
