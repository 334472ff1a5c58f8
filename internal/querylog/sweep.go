package querylog

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/fluxdns/fluxdns/internal/store"
)

// sweepInterval is how often the retention sweep checks
// log_retention_days / log_auto_cleanup_enabled and deletes expired
// rows.
const sweepInterval = 1 * time.Hour

// RunRetentionSweep blocks, deleting expired query_logs rows on
// sweepInterval, until ctx is cancelled. Intended to run in its own
// goroutine from process startup.
func RunRetentionSweep(ctx context.Context, st Store, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	sweepOnce(ctx, st, logger, time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, st, logger, time.Now())
		}
	}
}

func sweepOnce(ctx context.Context, st Store, logger *slog.Logger, now time.Time) {
	enabledRaw, err := st.GetConfig(ctx, store.ConfigKeyLogAutoCleanup)
	if err != nil || enabledRaw != "true" {
		return
	}
	daysRaw, err := st.GetConfig(ctx, store.ConfigKeyLogRetentionDays)
	if err != nil {
		return
	}
	days, err := strconv.Atoi(daysRaw)
	if err != nil || days <= 0 {
		return
	}

	cutoff := now.AddDate(0, 0, -days)
	deleted, err := st.DeleteQueryLogsOlderThan(ctx, cutoff)
	if err != nil {
		if logger != nil {
			logger.Warn("query log retention sweep failed", "error", err)
		}
		return
	}
	if deleted > 0 && logger != nil {
		logger.Info("query log retention sweep", "deleted", deleted, "cutoff", cutoff)
	}
}
