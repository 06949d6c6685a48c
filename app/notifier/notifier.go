package notifier

import (
	"context"
)

// Notifier delivers a change notification. Best-effort from the
// pipeline's perspective: delivery failures are logged, never retried
// and never affect run status.
type Notifier interface {
	Send(ctx context.Context, message string) error
}
