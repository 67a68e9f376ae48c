// ABOUTME: Credit-based backpressure for channel emitters
// ABOUTME: Blocks an emitter after CreditWindow blocks until the consumer grants one credit
package decoder

import (
	"context"
	"time"
)

// Credit grants permission for one more window of emission.
type Credit struct{}

// creditWindow is one channel's view of the shared credit channel.
type creditWindow struct {
	credits <-chan Credit
	limit   int
	emitted int
}

func newCreditWindow(credits <-chan Credit, limit int) *creditWindow {
	return &creditWindow{credits: credits, limit: limit}
}

// acquire returns immediately while under the limit. At the limit it blocks
// for one credit and resets the counter. It reports how long it waited.
func (w *creditWindow) acquire(ctx context.Context) (time.Duration, error) {
	if w.emitted < w.limit {
		return 0, nil
	}

	start := time.Now()
	select {
	case _, ok := <-w.credits:
		if !ok {
			return time.Since(start), backendError("credit channel closed")
		}
	case <-ctx.Done():
		return time.Since(start), ctx.Err()
	}
	w.emitted = 0
	return time.Since(start), nil
}

// record counts one emitted block.
func (w *creditWindow) record() {
	w.emitted++
}
