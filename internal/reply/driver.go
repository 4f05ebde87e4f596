package reply

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
)

// DriverOption configures the Driver.
type DriverOption func(*Driver)

// WithPollDelay sets the fixed delay between snapshot pulls. This inner
// cadence is independent of the outer query-detection loop and runs only
// while a turn is streaming.
func WithPollDelay(d time.Duration) DriverOption {
	return func(dr *Driver) { dr.pollDelay = d }
}

// WithTurnTimeout bounds one whole turn. A backend stuck forever on the
// typing marker fails the turn instead of hanging the loop.
func WithTurnTimeout(d time.Duration) DriverOption {
	return func(dr *Driver) { dr.turnTimeout = d }
}

// Driver runs the segmenter against a ReplySource for one turn at a time.
type Driver struct {
	pollDelay   time.Duration
	turnTimeout time.Duration
	log         *logger.Logger
}

// NewDriver creates a turn driver.
func NewDriver(log *logger.Logger, opts ...DriverOption) *Driver {
	d := &Driver{
		pollDelay:   100 * time.Millisecond,
		turnTimeout: 5 * time.Minute,
		log:         log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Drive pulls snapshots from src, feeds a fresh segmenter and invokes emit
// for every fragment, in order, until the final fragment. Returns the final
// fragment on success. ErrReplyTimeout when the turn budget runs out,
// ErrReplyTruncated when the source ends without signaling completion.
func (d *Driver) Drive(ctx context.Context, src domain.ReplySource, emit func(domain.Fragment) error) (domain.Fragment, error) {
	turnCtx, cancel := context.WithTimeout(ctx, d.turnTimeout)
	defer cancel()

	seg := NewSegmenter()
	for {
		raw, err := src.Next(turnCtx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return domain.Fragment{}, domain.ErrReplyTruncated
			case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
				return domain.Fragment{}, fmt.Errorf("%w after %s", domain.ErrReplyTimeout, d.turnTimeout)
			default:
				return domain.Fragment{}, fmt.Errorf("reply: next snapshot: %w", err)
			}
		}

		frag, ok := seg.Feed(raw)
		if ok {
			d.log.Debug("reply: fragment %q (final=%t)", frag.Text, frag.Final)
			if emit != nil {
				if err := emit(frag); err != nil {
					return domain.Fragment{}, err
				}
			}
			if frag.Final {
				return frag, nil
			}
		}

		select {
		case <-turnCtx.Done():
			if ctx.Err() != nil {
				return domain.Fragment{}, ctx.Err()
			}
			return domain.Fragment{}, fmt.Errorf("%w after %s", domain.ErrReplyTimeout, d.turnTimeout)
		case <-time.After(d.pollDelay):
		}
	}
}
