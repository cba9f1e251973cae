package outbound

import (
	"context"
	"time"
)

// ProbeMetrics records prober outcomes. Implementations must be safe for
// concurrent use.
type ProbeMetrics interface {
	// RecordProbeRun records one catalog run.
	RecordProbeRun(ctx context.Context, duration time.Duration, working, total int)

	// RecordMethodProbe records the outcome of one selector call.
	RecordMethodProbe(ctx context.Context, method string, success bool)

	// RecordFailover records that endpoint was invalidated after a transport failure.
	RecordFailover(ctx context.Context, endpoint string)
}
