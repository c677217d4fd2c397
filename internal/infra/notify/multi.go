package notify

import (
	"context"
	"errors"

	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
)

// Multi fans an alert out to every channel. It succeeds when at least one
// channel delivered the alert.
type Multi []livetrack.Notifier

func (m Multi) NotifyAlert(ctx context.Context, to livetrack.Recipient, alert livetrack.Alert) error {
	var (
		delivered bool
		errs      []error
	)
	for _, n := range m {
		err := n.NotifyAlert(ctx, to, alert)
		switch {
		case err == nil:
			delivered = true
		case errors.Is(err, ErrNoAddress):
		default:
			errs = append(errs, err)
		}
	}
	if delivered {
		return nil
	}
	if len(errs) == 0 {
		return ErrNoAddress
	}
	return errors.Join(errs...)
}

var _ livetrack.Notifier = Multi(nil)
