package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/credential"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/session"
	"github.com/nhle/sharedspace/tests/testutil"
)

type tokenStoreMock struct {
	mock.Mock
}

func (m *tokenStoreMock) Load() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *tokenStoreMock) Save(token string) error {
	return m.Called(token).Error(0)
}

func (m *tokenStoreMock) Clear() error {
	return m.Called().Error(0)
}

func recordStates(p *session.Provider) *[]model.SessionStatus {
	var seen []model.SessionStatus
	p.OnAuthStateChanged(func(s model.SessionState) {
		seen = append(seen, s.Status)
	})
	return &seen
}

func TestLoginCreatesUserAndBroadcasts(t *testing.T) {
	s := testutil.NewTestStore(t)
	tokens := &credential.Memory{}
	p := session.NewProvider(s, tokens, zap.NewNop())

	seen := recordStates(p)

	u, err := p.Login(context.Background(), " Ann@Example.com ", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "Ann", u.DisplayName)

	me, ok := p.Me()
	require.True(t, ok)
	assert.Equal(t, u.ID, me.ID)

	token, err := tokens.Load()
	require.NoError(t, err)
	assert.Equal(t, u.ID, token)

	assert.Equal(t, []model.SessionStatus{
		model.SessionLoading,
		model.SessionLoading,
		model.SessionAuthenticated,
	}, *seen)
}

func TestLoginReusesExistingUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	existing := testutil.SeedUser(t, s, "bo@example.com", "Bo")
	p := session.NewProvider(s, &credential.Memory{}, zap.NewNop())

	u, err := p.Login(context.Background(), "BO@example.com", "ignored")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, u.ID)
	assert.Equal(t, "Bo", u.DisplayName)
}

func TestLoginValidatesEmail(t *testing.T) {
	p := session.NewProvider(testutil.NewTestStore(t), &credential.Memory{}, zap.NewNop())

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := p.Login(context.Background(), email, "")
		assert.ErrorIs(t, err, model.ErrValidation, "email %q", email)
	}
	assert.True(t, p.State().IsLoading())
}

func TestRestore(t *testing.T) {
	s := testutil.NewTestStore(t)
	u := testutil.SeedUser(t, s, "cy@example.com", "Cy")

	tokens := &credential.Memory{}
	require.NoError(t, tokens.Save(u.ID))

	p := session.NewProvider(s, tokens, zap.NewNop())
	require.NoError(t, p.Restore(context.Background()))

	me, ok := p.Me()
	require.True(t, ok)
	assert.Equal(t, "Cy", me.DisplayName)
}

func TestRestoreWithoutToken(t *testing.T) {
	p := session.NewProvider(testutil.NewTestStore(t), &credential.Memory{}, zap.NewNop())

	require.NoError(t, p.Restore(context.Background()))
	assert.Equal(t, model.SessionUnauthenticated, p.State().Status)
}

func TestRestoreClearsStaleToken(t *testing.T) {
	tokens := new(tokenStoreMock)
	tokens.On("Load").Return("user_gone", nil).Once()
	tokens.On("Clear").Return(nil).Once()

	p := session.NewProvider(testutil.NewTestStore(t), tokens, zap.NewNop())
	require.NoError(t, p.Restore(context.Background()))

	assert.Equal(t, model.SessionUnauthenticated, p.State().Status)
	tokens.AssertExpectations(t)
}

func TestRestoreKeyringFailure(t *testing.T) {
	tokens := new(tokenStoreMock)
	tokens.On("Load").Return("", errors.New("keyring locked")).Once()

	p := session.NewProvider(testutil.NewTestStore(t), tokens, zap.NewNop())
	err := p.Restore(context.Background())

	assert.ErrorContains(t, err, "keyring locked")
	assert.Equal(t, model.SessionUnauthenticated, p.State().Status)
}

func TestLoginSurvivesTokenSaveFailure(t *testing.T) {
	tokens := new(tokenStoreMock)
	tokens.On("Save", mock.Anything).Return(errors.New("no keyring")).Once()

	p := session.NewProvider(testutil.NewTestStore(t), tokens, zap.NewNop())
	_, err := p.Login(context.Background(), "dee@example.com", "")
	require.NoError(t, err)

	_, ok := p.Me()
	assert.True(t, ok)
	tokens.AssertExpectations(t)
}

func TestLogout(t *testing.T) {
	tokens := &credential.Memory{}
	p := session.NewProvider(testutil.NewTestStore(t), tokens, zap.NewNop())
	_, err := p.Login(context.Background(), "eve@example.com", "")
	require.NoError(t, err)

	require.NoError(t, p.Logout(context.Background()))

	_, ok := p.Me()
	assert.False(t, ok)
	_, err = tokens.Load()
	assert.ErrorIs(t, err, credential.ErrNoSession)
}

func TestUpdateMe(t *testing.T) {
	s := testutil.NewTestStore(t)
	p := session.NewProvider(s, &credential.Memory{}, zap.NewNop())

	assert.ErrorIs(t, p.UpdateMe(context.Background(), "x"), model.ErrUnauthenticated)

	u, err := p.Login(context.Background(), "fay@example.com", "Fay")
	require.NoError(t, err)

	var names []string
	unsubscribe := p.OnAuthStateChanged(func(st model.SessionState) {
		if me, ok := st.User(); ok {
			names = append(names, me.DisplayName)
		}
	})
	require.NoError(t, p.UpdateMe(context.Background(), "  Fay Q "))
	unsubscribe()
	require.NoError(t, p.UpdateMe(context.Background(), "Later"))

	assert.Equal(t, []string{"Fay", "Fay Q"}, names)

	stored, err := s.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Later", stored.DisplayName)
}
