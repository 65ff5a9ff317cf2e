package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	"github.com/shanebarringer/ultracoach-sub001/internal/metrics"
)

const (
	// Refresh tokens slightly before they expire so in-flight requests never
	// race the expiry.
	tokenRefreshWindow = 5 * time.Minute
	syncBatchSize      = 100
)

// SyncWorker pulls new provider activities for linked accounts and records
// them as completed workouts. Runs on a ticker; one pass lists accounts whose
// last sync is older than the interval and syncs each in turn.
type SyncWorker struct {
	accounts      domain.IntegrationRepository
	workouts      domain.WorkoutRepository
	notifications domain.NotificationRepository
	client        ProviderClient
	clock         clockwork.Clock
	interval      time.Duration
}

func NewSyncWorker(
	accounts domain.IntegrationRepository,
	workouts domain.WorkoutRepository,
	notifications domain.NotificationRepository,
	client ProviderClient,
	clock clockwork.Clock,
	interval time.Duration,
) *SyncWorker {
	return &SyncWorker{
		accounts:      accounts,
		workouts:      workouts,
		notifications: notifications,
		client:        client,
		clock:         clock,
		interval:      interval,
	}
}

// Run blocks until ctx is cancelled, syncing due accounts every interval.
func (w *SyncWorker) Run(ctx context.Context) {
	slog.Info("Device sync worker started", "interval", w.interval)
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if err := w.RunOnce(ctx); err != nil {
				slog.Error("Device sync pass failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("Device sync worker stopped")
			return
		}
	}
}

// RunOnce syncs every account whose last sync is older than the interval.
// Per-account failures are logged and skipped; the pass continues.
func (w *SyncWorker) RunOnce(ctx context.Context) error {
	cutoff := w.clock.Now().Add(-w.interval)
	accounts, err := w.accounts.ListDueForSync(ctx, cutoff, syncBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list accounts due for sync: %w", err)
	}

	for _, acc := range accounts {
		if err := w.SyncAccount(ctx, acc); err != nil {
			slog.Error("Account sync failed",
				"user_id", acc.UserID, "provider", acc.Provider, "error", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// SyncAccount refreshes the token if needed, pulls activities since the last
// cursor, and upserts them as completed workouts. Already-seen activities are
// skipped via the (provider, activity id) uniqueness.
func (w *SyncWorker) SyncAccount(ctx context.Context, acc *domain.IntegrationAccount) error {
	start := w.clock.Now()
	defer func() {
		metrics.SyncRunDuration.Observe(w.clock.Since(start).Seconds())
	}()

	accessToken := acc.AccessToken
	if w.clock.Now().Add(tokenRefreshWindow).After(acc.TokenExpiry) {
		refreshed, err := w.client.RefreshToken(ctx, acc.RefreshToken)
		if err != nil {
			return fmt.Errorf("token refresh failed: %w", err)
		}

		expiry := w.clock.Now().Add(time.Duration(refreshed.ExpiresIn) * time.Second)
		if err := w.accounts.UpdateTokens(ctx, acc.ID, refreshed.AccessToken, refreshed.RefreshToken, expiry); err != nil {
			return fmt.Errorf("failed to store refreshed tokens: %w", err)
		}
		accessToken = refreshed.AccessToken
	}

	activities, err := w.client.ListActivities(ctx, accessToken, acc.LastSyncAt)
	if err != nil {
		return fmt.Errorf("failed to list provider activities: %w", err)
	}

	var created int
	for _, activity := range activities {
		workout, err := w.recordActivity(ctx, acc, activity)
		if errors.Is(err, domain.ErrDuplicateActivity) {
			metrics.SyncedActivities.WithLabelValues("duplicate").Inc()
			continue
		}
		if err != nil {
			metrics.SyncedActivities.WithLabelValues("error").Inc()
			slog.Error("Failed to record synced activity",
				"user_id", acc.UserID, "activity_id", activity.ID, "error", err)
			continue
		}

		metrics.SyncedActivities.WithLabelValues("created").Inc()
		created++

		if _, err := w.notifications.Create(ctx, acc.UserID, domain.NotificationWorkoutSynced, map[string]any{
			"workout_id": workout.ID.String(),
			"title":      workout.Title,
			"provider":   acc.Provider,
		}); err != nil {
			slog.Warn("Failed to create sync notification", "user_id", acc.UserID, "error", err)
		}
	}

	if err := w.accounts.UpdateLastSync(ctx, acc.ID, w.clock.Now()); err != nil {
		return fmt.Errorf("failed to update sync cursor: %w", err)
	}

	if created > 0 {
		slog.Info("Synced provider activities",
			"user_id", acc.UserID, "provider", acc.Provider,
			"activities", len(activities), "created", created)
	}
	return nil
}

func (w *SyncWorker) recordActivity(ctx context.Context, acc *domain.IntegrationAccount, activity Activity) (*domain.Workout, error) {
	duration := activity.Duration
	distance := activity.DistanceM

	workout := &domain.Workout{
		AthleteID:          acc.UserID,
		Title:              activity.Name,
		Sport:              activity.Sport,
		Date:               activity.StartTime,
		Status:             domain.WorkoutCompleted,
		ActualDuration:     &duration,
		ActualDistance:     &distance,
		AvgHeartRate:       activity.AvgHeartRate,
		ExternalProvider:   acc.Provider,
		ExternalActivityID: activity.ID,
	}
	return w.workouts.UpsertExternal(ctx, workout)
}
