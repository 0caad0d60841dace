// Package sync fetches the signed-in user's data once per change and
// fans it out to every tab.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
)

// SnapshotMsg is a tea.Msg carrying a freshly published snapshot.
type SnapshotMsg struct {
	Snapshot Snapshot
}

// AuthSource is the part of the session provider the hub listens to.
type AuthSource interface {
	OnAuthStateChanged(fn func(model.SessionState)) func()
}

// AcceptFunc runs before the first fetch for a newly signed-in user.
type AcceptFunc func(ctx context.Context, s store.Store, u model.User) (int, error)

// fetchTimeout is the maximum time allowed for one snapshot fetch.
const fetchTimeout = 30 * time.Second

type subscriber struct {
	ch chan Snapshot
}

// Hub holds the latest snapshot and the subscribers waiting for it.
type Hub struct {
	store  store.Store
	log    *zap.Logger
	accept AcceptFunc
	group  singleflight.Group

	mu          gosync.Mutex
	user        *model.User
	current     Snapshot
	subscribers []*subscriber
}

// Option configures a Hub.
type Option func(*Hub)

// WithAcceptance runs fn on every sign-in before the snapshot is fetched.
func WithAcceptance(fn AcceptFunc) Option {
	return func(h *Hub) { h.accept = fn }
}

// New creates a hub with an empty snapshot.
func New(s store.Store, log *zap.Logger, opts ...Option) *Hub {
	h := &Hub{store: s, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach follows auth: a signed-in state triggers acceptance and a
// fetch, anything else publishes the empty snapshot. Returns the
// unsubscribe func of the underlying listener.
func (h *Hub) Attach(auth AuthSource) func() {
	return auth.OnAuthStateChanged(func(state model.SessionState) {
		u, ok := state.User()
		if !ok {
			if state.IsLoading() {
				return
			}
			h.mu.Lock()
			h.user = nil
			h.mu.Unlock()
			h.publish(Snapshot{})
			return
		}

		h.mu.Lock()
		sameUser := h.user != nil && h.user.ID == u.ID
		h.user = &u
		h.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if !sameUser && h.accept != nil {
			n, err := h.accept(ctx, h.store, u)
			if err != nil {
				h.log.Error("accepting invitations failed", zap.String("user_id", u.ID), zap.Error(err))
			} else if n > 0 {
				h.log.Info("accepted pending invitations", zap.String("user_id", u.ID), zap.Int("count", n))
			}
		}
		if _, err := h.Refresh(ctx); err != nil {
			h.log.Error("fetching snapshot failed", zap.String("user_id", u.ID), zap.Error(err))
		}
	})
}

// Subscribe returns a channel that always holds the newest snapshot
// (older unread ones are replaced) and an unsubscribe func.
func (h *Hub) Subscribe() (<-chan Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{ch: make(chan Snapshot, 1)}
	h.subscribers = append(h.subscribers, sub)

	unsub := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, s := range h.subscribers {
			if s == sub {
				h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
				close(sub.ch)
				break
			}
		}
	}
	return sub.ch, unsub
}

// Current returns a copy of the latest snapshot.
func (h *Hub) Current() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.Clone()
}

// Refresh fetches the signed-in user's snapshot and publishes it.
// Concurrent calls for the same user share one fetch.
func (h *Hub) Refresh(ctx context.Context) (Snapshot, error) {
	h.mu.Lock()
	user := h.user
	h.mu.Unlock()

	if user == nil {
		return Snapshot{}, model.ErrUnauthenticated
	}

	v, err, _ := h.group.Do(user.ID, func() (any, error) {
		snap, err := Fetch(ctx, h.store, *user)
		if err != nil {
			return nil, err
		}
		h.publish(snap)
		return snap, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot).Clone(), nil
}

// publish stores snap and hands each subscriber its own copy.
func (h *Hub) publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = snap
	for _, sub := range h.subscribers {
		// Replace an unread snapshot with the newer one.
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snap.Clone()
	}
}

// Fetch loads the snapshot for u from s. Tasks, owned families, active
// memberships and preferences load concurrently; the families joined
// through those memberships and the member rows load next.
func Fetch(ctx context.Context, s store.Store, u model.User) (Snapshot, error) {
	snap := Snapshot{UserID: u.ID}
	var memberships []model.FamilyMember

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := s.ListTasks(gctx, store.Where("user_id", u.ID).Sort("created_at", true))
		if err != nil {
			return fmt.Errorf("fetching tasks: %w", err)
		}
		snap.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		families, err := s.ListFamilies(gctx, store.Where("owner_id", u.ID).Sort("created_at", true))
		if err != nil {
			return fmt.Errorf("fetching owned families: %w", err)
		}
		snap.OwnedFamilies = families
		return nil
	})
	g.Go(func() error {
		rows, err := s.ListMembers(gctx, store.Where(
			"email", model.NormalizeEmail(u.Email),
			"status", model.MemberStatusActive,
		))
		if err != nil {
			return fmt.Errorf("fetching memberships: %w", err)
		}
		memberships = rows
		return nil
	})
	g.Go(func() error {
		prefs, err := s.ListPreferences(gctx, store.Where("user_id", u.ID))
		if err != nil {
			return fmt.Errorf("fetching preferences: %w", err)
		}
		if len(prefs) > 0 {
			snap.Preferences = &prefs[0]
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	owned := make(map[string]bool, len(snap.OwnedFamilies))
	visible := make([]string, 0, len(snap.OwnedFamilies)+len(memberships))
	for _, f := range snap.OwnedFamilies {
		owned[f.ID] = true
		visible = append(visible, f.ID)
	}
	var joined []string
	for _, m := range memberships {
		if !owned[m.FamilyID] {
			joined = append(joined, m.FamilyID)
			visible = append(visible, m.FamilyID)
		}
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(joined) == 0 {
			return nil
		}
		families, err := s.ListFamilies(gctx, store.Where("id", joined).Sort("created_at", true))
		if err != nil {
			return fmt.Errorf("fetching member families: %w", err)
		}
		snap.MemberFamilies = families
		return nil
	})
	g.Go(func() error {
		if len(visible) == 0 {
			return nil
		}
		rows, err := s.ListMembers(gctx, store.Where("family_id", visible))
		if err != nil {
			return fmt.Errorf("fetching family members: %w", err)
		}
		snap.Members = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

// Wait returns a tea.Cmd that delivers the next snapshot from ch as a
// SnapshotMsg. Call it again after each message to keep listening.
func Wait(ch <-chan Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}
