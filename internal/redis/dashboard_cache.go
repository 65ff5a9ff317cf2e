package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shanebarringer/ultracoach-sub001/internal/metrics"
)

const (
	dashboardCachePrefix = "dashboard:"
	dashboardCacheTTL    = 30 * time.Second
)

// DashboardCache is a best-effort JSON cache for assembled dashboards.
// Redis errors degrade to a miss, never to a failed request.
type DashboardCache struct {
	rdb *goredis.Client
}

func NewDashboardCache(client *Client) *DashboardCache {
	return &DashboardCache{rdb: client.rdb}
}

func dashboardKey(userID uuid.UUID) string {
	return dashboardCachePrefix + userID.String()
}

// Get loads a cached dashboard into dest. Returns false on a miss.
func (c *DashboardCache) Get(ctx context.Context, userID uuid.UUID, dest any) bool {
	data, err := c.rdb.Get(ctx, dashboardKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Warn("Dashboard cache GET failed, falling through to PostgreSQL",
				"user_id", userID, "error", err)
		}
		metrics.DashboardCacheMisses.Inc()
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		slog.Warn("Failed to unmarshal cached dashboard, falling through to PostgreSQL",
			"user_id", userID, "error", err)
		metrics.DashboardCacheMisses.Inc()
		return false
	}

	metrics.DashboardCacheHits.Inc()
	return true
}

// Set stores an assembled dashboard (best-effort).
func (c *DashboardCache) Set(ctx context.Context, userID uuid.UUID, dashboard any) {
	encoded, err := json.Marshal(dashboard)
	if err != nil {
		slog.Warn("Failed to marshal dashboard for cache", "user_id", userID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, dashboardKey(userID), encoded, dashboardCacheTTL).Err(); err != nil {
		slog.Warn("Failed to populate dashboard cache", "user_id", userID, "error", err)
	}
}

// Invalidate removes a user's cached dashboard after a write that changes it.
func (c *DashboardCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = dashboardKey(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate dashboard cache: %w", err)
	}
	return nil
}
