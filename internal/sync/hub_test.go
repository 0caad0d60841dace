package sync_test

import (
	"context"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/credential"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/session"
	"github.com/nhle/sharedspace/internal/store"
	"github.com/nhle/sharedspace/internal/sync"
	"github.com/nhle/sharedspace/tests/testutil"
)

// countingStore counts ListTasks calls and can hold them until released.
type countingStore struct {
	store.Store
	taskLists atomic.Int32
	gate      chan struct{}
}

func (c *countingStore) ListTasks(ctx context.Context, q store.Query) ([]model.Task, error) {
	c.taskLists.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.Store.ListTasks(ctx, q)
}

func seedFamilies(t *testing.T, s store.Store) (me model.User, own, joined, other model.Family) {
	t.Helper()
	ctx := context.Background()

	me = testutil.SeedUser(t, s, "me@example.com", "Me")
	friend := testutil.SeedUser(t, s, "friend@example.com", "Friend")

	var err error
	own, err = s.CreateFamily(ctx, model.Family{Name: "Mine", OwnerID: me.ID})
	require.NoError(t, err)
	joined, err = s.CreateFamily(ctx, model.Family{Name: "Theirs", OwnerID: friend.ID})
	require.NoError(t, err)
	other, err = s.CreateFamily(ctx, model.Family{Name: "Invited only", OwnerID: friend.ID})
	require.NoError(t, err)

	rows := []model.FamilyMember{
		{FamilyID: own.ID, UserID: me.ID, Email: me.Email, Role: model.RoleAdmin, Status: model.MemberStatusActive},
		{FamilyID: own.ID, Email: "pending@example.com", Role: model.RoleMember, Status: model.MemberStatusInvited},
		{FamilyID: joined.ID, UserID: me.ID, Email: me.Email, Role: model.RoleMember, Status: model.MemberStatusActive},
		{FamilyID: other.ID, Email: me.Email, Role: model.RoleMember, Status: model.MemberStatusInvited},
	}
	for _, m := range rows {
		_, err := s.CreateMember(ctx, m)
		require.NoError(t, err)
	}

	_, err = s.CreateTask(ctx, model.Task{Title: "mine", UserID: me.ID})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, model.Task{Title: "friend's", UserID: friend.ID})
	require.NoError(t, err)
	return me, own, joined, other
}

func TestFetch(t *testing.T) {
	s := testutil.NewTestStore(t)
	me, own, joined, _ := seedFamilies(t, s)

	snap, err := sync.Fetch(context.Background(), s, me)
	require.NoError(t, err)

	assert.Equal(t, me.ID, snap.UserID)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "mine", snap.Tasks[0].Title)

	require.Len(t, snap.OwnedFamilies, 1)
	assert.Equal(t, own.ID, snap.OwnedFamilies[0].ID)
	require.Len(t, snap.MemberFamilies, 1)
	assert.Equal(t, joined.ID, snap.MemberFamilies[0].ID)

	// Rows of the invited-only family stay hidden.
	assert.Len(t, snap.Members, 3)
	assert.Nil(t, snap.Preferences)
}

func TestRefreshRequiresUser(t *testing.T) {
	h := sync.New(testutil.NewTestStore(t), zap.NewNop())

	_, err := h.Refresh(context.Background())
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestAttachPublishesOnLoginAndLogout(t *testing.T) {
	s := testutil.NewTestStore(t)
	me, _, _, _ := seedFamilies(t, s)

	p := session.NewProvider(s, &credential.Memory{}, zap.NewNop())
	h := sync.New(s, zap.NewNop())
	ch, unsubscribe := h.Subscribe()
	defer unsubscribe()
	h.Attach(p)

	_, err := p.Login(context.Background(), me.Email, "")
	require.NoError(t, err)

	snap := <-ch
	assert.Equal(t, me.ID, snap.UserID)
	assert.Len(t, snap.Tasks, 1)

	require.NoError(t, p.Logout(context.Background()))
	snap = <-ch
	assert.True(t, snap.Empty())
	assert.True(t, h.Current().Empty())
}

func TestAttachRunsAcceptanceOncePerUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	p := session.NewProvider(s, &credential.Memory{}, zap.NewNop())

	var calls int
	h := sync.New(s, zap.NewNop(), sync.WithAcceptance(
		func(ctx context.Context, _ store.Store, u model.User) (int, error) {
			calls++
			return 0, nil
		}))
	h.Attach(p)

	_, err := p.Login(context.Background(), "gil@example.com", "")
	require.NoError(t, err)
	require.NoError(t, p.UpdateMe(context.Background(), "Gil"))

	assert.Equal(t, 1, calls)
}

func TestRefreshSharesConcurrentFetches(t *testing.T) {
	base := testutil.NewTestStore(t)
	cs := &countingStore{Store: base, gate: make(chan struct{})}
	p := session.NewProvider(base, &credential.Memory{}, zap.NewNop())

	_, err := p.Login(context.Background(), "hal@example.com", "")
	require.NoError(t, err)

	h := sync.New(cs, zap.NewNop())
	go h.Attach(p)

	// Wait until the attach-triggered fetch is parked on the gate.
	require.Eventually(t, func() bool { return cs.taskLists.Load() == 1 }, time.Second, time.Millisecond)

	var wg gosync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(cs.gate)
	wg.Wait()

	assert.Equal(t, int32(1), cs.taskLists.Load())
}

func TestSubscribersGetIndependentCopies(t *testing.T) {
	s := testutil.NewTestStore(t)
	me, _, _, _ := seedFamilies(t, s)
	p := session.NewProvider(s, &credential.Memory{}, zap.NewNop())

	h := sync.New(s, zap.NewNop())
	a, unsubA := h.Subscribe()
	defer unsubA()
	b, unsubB := h.Subscribe()
	defer unsubB()
	h.Attach(p)

	_, err := p.Login(context.Background(), me.Email, "")
	require.NoError(t, err)

	snapA := <-a
	snapB := <-b
	snapA.Tasks[0].Title = "changed"
	assert.Equal(t, "mine", snapB.Tasks[0].Title)
	assert.Equal(t, "mine", h.Current().Tasks[0].Title)
}

func TestSubscribeKeepsNewestOnly(t *testing.T) {
	s := testutil.NewTestStore(t)
	p := session.NewProvider(s, &credential.Memory{}, zap.NewNop())
	h := sync.New(s, zap.NewNop())
	ch, unsubscribe := h.Subscribe()
	h.Attach(p)

	u, err := p.Login(context.Background(), "ida@example.com", "")
	require.NoError(t, err)
	require.NoError(t, p.Logout(context.Background()))

	snap := <-ch
	assert.True(t, snap.Empty(), "expected the signed-out snapshot, got user %s", u.ID)

	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
}
