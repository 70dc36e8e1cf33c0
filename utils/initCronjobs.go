package utils

import (
	"context"
	"time"

	"unoserver/uno/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronSweeper runs the hourly expiry sweep over the session store.
// Redis TTLs already expire snapshots passively; the sweep is the
// active backup for clocks/TTLs that drifted. It is idempotent and
// only touches the durable store, never the in-memory sessions.
func CronSweeper(st *store.SessionStore, retention time.Duration, logger *zap.Logger) {
	c := cron.New()

	c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		deleted, err := st.SweepExpired(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Error("Expiry sweep failed", zap.Error(err))
			return
		}
		if deleted > 0 {
			logger.Info("Expiry sweep removed stale rooms", zap.Int("rooms_deleted", deleted))
		}
	})

	c.Start()
}
