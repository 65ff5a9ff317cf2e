package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

type mockDashboards struct {
	GetFn        func(ctx context.Context, userID uuid.UUID, dest any) bool
	SetFn        func(ctx context.Context, userID uuid.UUID, dashboard any)
	InvalidateFn func(ctx context.Context, userIDs ...uuid.UUID) error
}

func (m *mockDashboards) Get(ctx context.Context, userID uuid.UUID, dest any) bool {
	if m.GetFn == nil {
		return false
	}
	return m.GetFn(ctx, userID, dest)
}

func (m *mockDashboards) Set(ctx context.Context, userID uuid.UUID, dashboard any) {
	if m.SetFn != nil {
		m.SetFn(ctx, userID, dashboard)
	}
}

func (m *mockDashboards) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	if m.InvalidateFn == nil {
		return nil
	}
	return m.InvalidateFn(ctx, userIDs...)
}

func noInvitations() *mockInvitationRepo {
	return &mockInvitationRepo{
		ListByInviteeEmailFn: func(_ context.Context, _ string) ([]*domain.Invitation, error) {
			return nil, nil
		},
	}
}

// Wednesday; the week under test starts Monday 2026-08-24.
var dashboardNow = time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

func TestGetDashboard_Athlete(t *testing.T) {
	athlete := athleteUser()

	workouts := &mockWorkoutRepo{
		ListFn: func(_ context.Context, filter domain.WorkoutFilter) ([]*domain.Workout, error) {
			assert.Equal(t, athlete.ID, filter.AthleteID)
			assert.Equal(t, domain.WorkoutPlanned, filter.Status)
			return []*domain.Workout{plannedWorkout(athlete.ID)}, nil
		},
		CountByStatusFn: func(_ context.Context, _ uuid.UUID, status domain.WorkoutStatus, from, _ time.Time) (int, error) {
			assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), from)
			if status == domain.WorkoutCompleted {
				return 2, nil
			}
			return 3, nil
		},
	}
	races := &mockRaceRepo{
		ListByAthleteFn: func(_ context.Context, _ uuid.UUID) ([]*domain.Race, error) {
			return []*domain.Race{
				{ID: uuid.New(), Name: "Autumn 50k", Sport: "running", Date: dashboardNow.AddDate(0, 1, 0), DistanceM: 50000},
				{ID: uuid.New(), Name: "Spring marathon", Sport: "running", Date: dashboardNow.AddDate(0, -3, 0), DistanceM: 42195},
			}, nil
		},
	}
	unread := &mockUnread{
		TotalFn: func(_ context.Context, _ uuid.UUID) (int, error) { return 4, nil },
	}
	invitations := &mockInvitationRepo{
		ListByInviteeEmailFn: func(_ context.Context, email string) ([]*domain.Invitation, error) {
			assert.Equal(t, athlete.Email, email)
			return []*domain.Invitation{
				{Status: domain.InvitationPending, ExpiresAt: dashboardNow.Add(time.Hour)},
				{Status: domain.InvitationPending, ExpiresAt: dashboardNow.Add(-time.Hour)},
			}, nil
		},
	}
	svc := NewService(Deps{
		Workouts:    workouts,
		Races:       races,
		Invitations: invitations,
		Unread:      unread,
		Clock:       clockwork.NewFakeClockAt(dashboardNow),
	})

	dashboard, err := svc.GetDashboard(context.Background(), athlete)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAthlete, dashboard.Role)
	assert.Equal(t, 2, dashboard.CompletedThisWeek)
	assert.Equal(t, 3, dashboard.PlannedThisWeek)
	assert.Equal(t, 4, dashboard.UnreadMessages)
	assert.Equal(t, 1, dashboard.PendingInvitations)
	require.Len(t, dashboard.UpcomingWorkouts, 1)
	assert.Equal(t, "Tempo intervals", dashboard.UpcomingWorkouts[0].Title)

	// Past races are filtered out.
	require.Len(t, dashboard.UpcomingRaces, 1)
	assert.Equal(t, "Autumn 50k", dashboard.UpcomingRaces[0].Name)
}

func TestGetDashboard_CoachAggregatesAthletes(t *testing.T) {
	coach := coachUser()
	linked := athleteUser()
	former := athleteUser()

	relationships := &mockRelationshipRepo{
		ListByUserFn: func(_ context.Context, _ uuid.UUID) ([]*domain.Relationship, error) {
			return []*domain.Relationship{
				{CoachID: coach.ID, AthleteID: linked.ID, Status: domain.RelationshipActive},
				{CoachID: coach.ID, AthleteID: former.ID, Status: domain.RelationshipEnded},
			}, nil
		},
	}
	users := &mockUserRepo{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			require.Equal(t, linked.ID, id)
			return linked, nil
		},
	}
	workouts := &mockWorkoutRepo{
		CountByStatusFn: func(_ context.Context, athleteID uuid.UUID, status domain.WorkoutStatus, _, _ time.Time) (int, error) {
			require.Equal(t, linked.ID, athleteID)
			if status == domain.WorkoutPlanned {
				return 5, nil
			}
			return 2, nil
		},
	}
	svc := NewService(Deps{
		Users:         users,
		Workouts:      workouts,
		Relationships: relationships,
		Invitations:   noInvitations(),
		Clock:         clockwork.NewFakeClockAt(dashboardNow),
	})

	dashboard, err := svc.GetDashboard(context.Background(), coach)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleCoach, dashboard.Role)
	require.Len(t, dashboard.Athletes, 1)
	assert.Equal(t, linked.DisplayName, dashboard.Athletes[0].DisplayName)
	assert.Equal(t, 5, dashboard.Athletes[0].PlannedThisWeek)
	assert.Equal(t, 2, dashboard.Athletes[0].CompletedThisWeek)
	assert.Equal(t, 5, dashboard.PlannedThisWeek)
	assert.Equal(t, 2, dashboard.CompletedThisWeek)
}

func TestGetDashboard_CacheHitSkipsAssembly(t *testing.T) {
	athlete := athleteUser()

	dashboards := &mockDashboards{
		GetFn: func(_ context.Context, userID uuid.UUID, dest any) bool {
			require.Equal(t, athlete.ID, userID)
			*dest.(*Dashboard) = Dashboard{Role: domain.RoleAthlete, CompletedThisWeek: 7}
			return true
		},
	}
	// No repositories wired: a cache hit must not touch them.
	svc := NewService(Deps{
		Dashboards: dashboards,
		Clock:      clockwork.NewFakeClockAt(dashboardNow),
	})

	dashboard, err := svc.GetDashboard(context.Background(), athlete)
	require.NoError(t, err)
	assert.Equal(t, 7, dashboard.CompletedThisWeek)
}

func TestGetDashboard_CacheMissStoresResult(t *testing.T) {
	athlete := athleteUser()

	var stored any
	dashboards := &mockDashboards{
		SetFn: func(_ context.Context, userID uuid.UUID, dashboard any) {
			require.Equal(t, athlete.ID, userID)
			stored = dashboard
		},
	}
	workouts := &mockWorkoutRepo{
		ListFn: func(_ context.Context, _ domain.WorkoutFilter) ([]*domain.Workout, error) {
			return nil, nil
		},
		CountByStatusFn: func(_ context.Context, _ uuid.UUID, _ domain.WorkoutStatus, _, _ time.Time) (int, error) {
			return 0, nil
		},
	}
	races := &mockRaceRepo{
		ListByAthleteFn: func(_ context.Context, _ uuid.UUID) ([]*domain.Race, error) {
			return nil, nil
		},
	}
	svc := NewService(Deps{
		Workouts:    workouts,
		Races:       races,
		Invitations: noInvitations(),
		Dashboards:  dashboards,
		Clock:       clockwork.NewFakeClockAt(dashboardNow),
	})

	_, err := svc.GetDashboard(context.Background(), athlete)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.RoleAthlete, stored.(*Dashboard).Role)
}

func TestGetDashboard_ConcurrentMissesShareAssembly(t *testing.T) {
	athlete := athleteUser()

	var assemblies atomic.Int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})

	workouts := &mockWorkoutRepo{
		ListFn: func(_ context.Context, _ domain.WorkoutFilter) ([]*domain.Workout, error) {
			assemblies.Add(1)
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
			return nil, nil
		},
		CountByStatusFn: func(_ context.Context, _ uuid.UUID, _ domain.WorkoutStatus, _, _ time.Time) (int, error) {
			return 0, nil
		},
	}
	races := &mockRaceRepo{
		ListByAthleteFn: func(_ context.Context, _ uuid.UUID) ([]*domain.Race, error) {
			return nil, nil
		},
	}
	svc := NewService(Deps{
		Workouts:    workouts,
		Races:       races,
		Invitations: noInvitations(),
		Clock:       clockwork.NewFakeClockAt(dashboardNow),
	})

	const callers = 8
	results := make(chan *Dashboard, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dashboard, err := svc.GetDashboard(context.Background(), athlete)
			assert.NoError(t, err)
			results <- dashboard
		}()
	}

	<-entered
	// Let the remaining callers pile onto the in-flight assembly.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), assemblies.Load())
	first := <-results
	for dashboard := range results {
		assert.Same(t, first, dashboard)
	}
}
