package settings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/settings"
	"github.com/nhle/sharedspace/internal/store"
	"github.com/nhle/sharedspace/internal/sync"
	"github.com/nhle/sharedspace/internal/theme"
	"github.com/nhle/sharedspace/tests/testutil"
)

type identityMock struct {
	mock.Mock
}

func (m *identityMock) UpdateMe(ctx context.Context, displayName string) error {
	return m.Called(ctx, displayName).Error(0)
}

type failingPreferencesStore struct {
	store.Store
}

func (failingPreferencesStore) CreatePreferences(context.Context, model.Preferences) (model.Preferences, error) {
	return model.Preferences{}, errors.New("backend unavailable")
}

func TestLoadDefaultsWhenAbsent(t *testing.T) {
	s := testutil.NewTestStore(t)
	u := testutil.SeedUser(t, s, "ana@example.com", "Ana")
	vm := settings.New(s, nil, nil, zap.NewNop())

	require.NoError(t, vm.Load(context.Background(), u))

	prefs := vm.Preferences()
	assert.Empty(t, prefs.ID)
	assert.Equal(t, u.ID, prefs.UserID)
	assert.Equal(t, model.DefaultTheme, prefs.Theme)
	assert.True(t, prefs.EmailNotifications)
	assert.Equal(t, "Ana", vm.DisplayName())
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, s, "ana@example.com", "Ana")
	vm := settings.New(s, nil, nil, zap.NewNop())
	require.NoError(t, vm.Load(ctx, u))

	prefs := vm.Preferences()
	prefs.Bio = "  gardener  "
	prefs.WeeklyDigest = true
	vm.SetPreferences(prefs)
	require.NoError(t, vm.Save(ctx))

	stored, err := s.ListPreferences(ctx, store.Where("user_id", u.ID))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "gardener", stored[0].Bio)
	assert.True(t, stored[0].WeeklyDigest)
	assert.Equal(t, stored[0].ID, vm.Preferences().ID)

	prefs = vm.Preferences()
	prefs.Location = "Lisbon"
	vm.SetPreferences(prefs)
	require.NoError(t, vm.Save(ctx))

	stored, err = s.ListPreferences(ctx, store.Where("user_id", u.ID))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Lisbon", stored[0].Location)
	assert.Equal(t, "gardener", stored[0].Bio)
}

func TestLoadUsesStoredRecord(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, s, "ana@example.com", "Ana")
	stored, err := s.CreatePreferences(ctx, model.Preferences{UserID: u.ID, Theme: "teal", Bio: "gardener"})
	require.NoError(t, err)

	vm := settings.New(s, nil, nil, zap.NewNop())
	require.NoError(t, vm.Load(ctx, u))

	prefs := vm.Preferences()
	assert.Equal(t, stored.ID, prefs.ID)
	assert.Equal(t, "teal", prefs.Theme)
	assert.Equal(t, "gardener", prefs.Bio)
}

func TestSaveStampsUpdatedAt(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, s, "ana@example.com", "Ana")
	stored, err := s.CreatePreferences(ctx, model.DefaultPreferences(u.ID))
	require.NoError(t, err)

	stale := stored
	stale.UpdatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	vm := settings.New(s, nil, nil, zap.NewNop())
	vm.SetSnapshot(u, sync.Snapshot{UserID: u.ID, Preferences: &stale})

	require.NoError(t, vm.Save(ctx))

	prefs := vm.Preferences()
	assert.Equal(t, stored.ID, prefs.ID)
	assert.WithinDuration(t, time.Now(), prefs.UpdatedAt, time.Minute)
}

func TestSaveUpdatesDisplayName(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, s, "ana@example.com", "Ana")

	id := &identityMock{}
	id.On("UpdateMe", mock.Anything, "Ana Silva").Return(nil).Once()

	vm := settings.New(s, id, nil, zap.NewNop())
	require.NoError(t, vm.Load(ctx, u))
	vm.SetDisplayName("  Ana Silva ")
	require.NoError(t, vm.Save(ctx))
	assert.Equal(t, "Ana Silva", vm.DisplayName())

	// Unchanged name is not sent again.
	require.NoError(t, vm.Save(ctx))
	id.AssertExpectations(t)
}

func TestSaveStopsWhenDisplayNameFails(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, s, "ana@example.com", "Ana")

	errRejected := errors.New("rejected")
	id := &identityMock{}
	id.On("UpdateMe", mock.Anything, "Bea").Return(errRejected)

	vm := settings.New(s, id, nil, zap.NewNop())
	require.NoError(t, vm.Load(ctx, u))
	vm.SetDisplayName("Bea")

	require.ErrorIs(t, vm.Save(ctx), errRejected)
	stored, err := s.ListPreferences(ctx, store.Where("user_id", u.ID))
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSaveRequiresUser(t *testing.T) {
	vm := settings.New(testutil.NewTestStore(t), nil, nil, zap.NewNop())
	require.ErrorIs(t, vm.Save(context.Background()), model.ErrUnauthenticated)
}

func TestSelectThemeAppliesImmediately(t *testing.T) {
	s := testutil.NewTestStore(t)
	u := testutil.SeedUser(t, s, "ana@example.com", "Ana")
	tc := theme.NewContext("indigo", nil)
	vm := settings.New(s, nil, tc, zap.NewNop())
	require.NoError(t, vm.Load(context.Background(), u))

	require.NoError(t, vm.SelectTheme("orange"))
	assert.Equal(t, "orange", tc.Palette().Key)
	assert.Equal(t, "orange", vm.Preferences().Theme)

	stored, err := s.ListPreferences(context.Background(), store.Where("user_id", u.ID))
	require.NoError(t, err)
	assert.Empty(t, stored)

	require.ErrorIs(t, vm.SelectTheme("mauve"), theme.ErrUnknownTheme)
	assert.Equal(t, "orange", vm.Preferences().Theme)
}

func TestThemeStaysAppliedWhenSaveFails(t *testing.T) {
	s := testutil.NewTestStore(t)
	u := testutil.SeedUser(t, s, "ana@example.com", "Ana")
	tc := theme.NewContext("indigo", nil)
	vm := settings.New(failingPreferencesStore{Store: s}, nil, tc, zap.NewNop())
	vm.SetSnapshot(u, sync.Snapshot{UserID: u.ID})

	prefs := vm.Preferences()
	prefs.Theme = "red"
	vm.SetPreferences(prefs)

	require.Error(t, vm.Save(context.Background()))
	assert.Equal(t, "red", tc.Palette().Key)
	assert.Empty(t, vm.Preferences().ID)
}

func TestSetSnapshot(t *testing.T) {
	vm := settings.New(testutil.NewTestStore(t), nil, nil, zap.NewNop())
	u := model.User{ID: "u1", Email: "ana@example.com", DisplayName: "Ana"}

	saved := model.DefaultPreferences(u.ID)
	saved.ID = "prefs_1"
	saved.Theme = "teal"
	vm.SetSnapshot(u, sync.Snapshot{UserID: u.ID, Preferences: &saved})
	assert.Equal(t, "teal", vm.Preferences().Theme)

	vm.SetSnapshot(model.User{}, sync.Snapshot{})
	assert.Empty(t, vm.Preferences().UserID)
	assert.Empty(t, vm.DisplayName())
}
