package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

func newUserFixture() (*UserService, *memUserStore) {
	store := newMemUserStore()
	return NewUserService(store, "test-secret", testLogger()), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newUserFixture()

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
	assert.True(t, resp.User.IsActive)
	assert.Equal(t, 1, resp.User.Profile.Level)

	// login by email
	resp, err = svc.Login(context.Background(), &LoginRequest{Identifier: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User.LastLoginAt)

	// login by username
	resp, err = svc.Login(context.Background(), &LoginRequest{Identifier: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &RegisterRequest{
		Username: "alice2", Email: "alice@example.com", Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConflict))

	_, err = svc.Register(context.Background(), &RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindConflict))
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &LoginRequest{Identifier: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindUnauthorized))

	_, err = svc.Login(context.Background(), &LoginRequest{Identifier: "nobody", Password: "password123"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindUnauthorized))
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc, _ := newUserFixture()

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), resp.User.ID))

	_, err = svc.Login(context.Background(), &LoginRequest{Identifier: "alice", Password: "password123"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindForbidden))
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, _ := newUserFixture()

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	name := "Alice A."
	user, err := svc.UpdateProfile(context.Background(), resp.User.ID, &UpdateProfileRequest{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", user.Profile.DisplayName)

	// unspecified fields keep their values
	assert.True(t, user.Settings.Notifications)
	assert.Equal(t, "light", user.Settings.Theme)
}

func TestRecordGameResultAggregates(t *testing.T) {
	svc, store := newUserFixture()
	require.NoError(t, store.Save(context.Background(), &models.User{ID: "u1", Username: "alice", IsActive: true}))

	require.NoError(t, svc.RecordGameResult(context.Background(), "u1", true, 100, 60))
	require.NoError(t, svc.RecordGameResult(context.Background(), "u1", true, 200, 90))
	require.NoError(t, svc.RecordGameResult(context.Background(), "u1", false, 50, 30))

	user, err := store.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, user.Stats.GamesPlayed)
	assert.Equal(t, 2, user.Stats.GamesWon)
	assert.InDelta(t, 116.66, user.Stats.AverageScore, 0.01)
	assert.Equal(t, int64(180), user.Stats.TotalPlayTime)

	// the loss broke the streak
	assert.Equal(t, 0, user.Stats.CurrentStreak)
	assert.Equal(t, 2, user.Stats.BestStreak)
	assert.InDelta(t, 0.666, user.Stats.WinRate(), 0.01)
}

func TestRankingsOrderAndExclusions(t *testing.T) {
	svc, store := newUserFixture()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.User{
		ID: "u1", Username: "veteran", IsActive: true,
		Stats: models.UserStats{GamesPlayed: 10, GamesWon: 8, AverageScore: 150},
	}))
	require.NoError(t, store.Save(ctx, &models.User{
		ID: "u2", Username: "casual", IsActive: true,
		Stats: models.UserStats{GamesPlayed: 4, GamesWon: 2, AverageScore: 100},
	}))
	require.NoError(t, store.Save(ctx, &models.User{
		ID: "u3", Username: "rookie", IsActive: true,
	}))

	ranked, err := svc.GetRankings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2, "players without games are excluded")
	assert.Equal(t, "veteran", ranked[0].Username)
	assert.Equal(t, "casual", ranked[1].Username)

	ranked, err = svc.GetRankings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "veteran", ranked[0].Username)
}

func TestAvailabilityChecks(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	require.NoError(t, err)

	free, err := svc.IsUsernameAvailable(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = svc.IsUsernameAvailable(context.Background(), "bob")
	require.NoError(t, err)
	assert.True(t, free)

	free, err = svc.IsEmailAvailable(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.False(t, free)
}
