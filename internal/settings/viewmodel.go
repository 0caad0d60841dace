// Package settings edits the per-user preferences record and the
// display name.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
	"github.com/nhle/sharedspace/internal/sync"
	"github.com/nhle/sharedspace/internal/theme"
)

// Identity updates the signed-in user's display name.
type Identity interface {
	UpdateMe(ctx context.Context, displayName string) error
}

// ThemeApplier switches the active color theme.
type ThemeApplier interface {
	Apply(key string) error
}

// ViewModel holds the editable preferences of one user.
type ViewModel struct {
	store    store.Store
	identity Identity
	theme    ThemeApplier
	log      *zap.Logger

	mu          gosync.Mutex
	user        *model.User
	prefs       model.Preferences
	displayName string
}

// New creates a view-model. identity and theme may be nil in tests.
func New(s store.Store, identity Identity, themes ThemeApplier, log *zap.Logger) *ViewModel {
	return &ViewModel{store: s, identity: identity, theme: themes, log: log}
}

// Load reads u's preferences record, falling back to the defaults.
func (vm *ViewModel) Load(ctx context.Context, u model.User) error {
	prefs, err := vm.find(ctx, u.ID)
	if err != nil {
		vm.log.Error("loading preferences failed", zap.String("user_id", u.ID), zap.Error(err))
		return fmt.Errorf("loading preferences: %w", err)
	}

	p := model.DefaultPreferences(u.ID)
	if prefs != nil {
		p = *prefs
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.set(u, p)
	return nil
}

// SetSnapshot takes the preferences out of a hub snapshot. An empty
// snapshot signs out.
func (vm *ViewModel) SetSnapshot(u model.User, snap sync.Snapshot) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if snap.Empty() {
		vm.user = nil
		vm.prefs = model.Preferences{}
		vm.displayName = ""
		return
	}
	prefs := model.DefaultPreferences(u.ID)
	if snap.Preferences != nil {
		prefs = *snap.Preferences
	}
	vm.set(u, prefs)
}

func (vm *ViewModel) set(u model.User, prefs model.Preferences) {
	vm.user = &u
	vm.prefs = prefs
	vm.displayName = u.DisplayName
}

func (vm *ViewModel) find(ctx context.Context, userID string) (*model.Preferences, error) {
	found, err := vm.store.ListPreferences(ctx, store.Where("user_id", userID))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// Preferences returns the edited record.
func (vm *ViewModel) Preferences() model.Preferences {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.prefs
}

// SetPreferences replaces the edited record. ID and UserID are kept.
func (vm *ViewModel) SetPreferences(p model.Preferences) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	p.ID, p.UserID = vm.prefs.ID, vm.prefs.UserID
	p.CreatedAt, p.UpdatedAt = vm.prefs.CreatedAt, vm.prefs.UpdatedAt
	vm.prefs = p
}

// DisplayName returns the edited display name.
func (vm *ViewModel) DisplayName() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.displayName
}

// SetDisplayName changes the edited display name.
func (vm *ViewModel) SetDisplayName(name string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.displayName = name
}

// SelectTheme applies key right away and records it in the edited
// record. The record itself is only stored by Save.
func (vm *ViewModel) SelectTheme(key string) error {
	err := vm.applyTheme(key)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if !errors.Is(err, theme.ErrUnknownTheme) {
		vm.prefs.Theme = key
	}
	return err
}

func (vm *ViewModel) applyTheme(key string) error {
	if vm.theme == nil {
		return nil
	}
	return vm.theme.Apply(key)
}

// Save stores the display name and the preferences record, creating the
// record on first save. The theme is applied before the store calls and
// stays applied when they fail.
func (vm *ViewModel) Save(ctx context.Context) error {
	vm.mu.Lock()
	if vm.user == nil {
		vm.mu.Unlock()
		return model.ErrUnauthenticated
	}
	u := *vm.user
	prefs := vm.prefs
	name := strings.TrimSpace(vm.displayName)
	vm.mu.Unlock()

	prefs.UserID = u.ID
	prefs.Bio = strings.TrimSpace(prefs.Bio)
	prefs.Location = strings.TrimSpace(prefs.Location)
	prefs.Phone = strings.TrimSpace(prefs.Phone)

	if err := vm.applyTheme(prefs.Theme); err != nil {
		vm.log.Error("applying theme failed", zap.String("theme", prefs.Theme), zap.Error(err))
	}

	if vm.identity != nil && name != u.DisplayName {
		if err := vm.identity.UpdateMe(ctx, name); err != nil {
			vm.log.Error("updating display name failed", zap.String("user_id", u.ID), zap.Error(err))
			return fmt.Errorf("updating display name: %w", err)
		}
		u.DisplayName = name
	}

	saved, err := vm.persist(ctx, prefs)
	if err != nil {
		vm.log.Error("saving preferences failed", zap.String("user_id", u.ID), zap.Error(err))
		return fmt.Errorf("saving preferences: %w", err)
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.user = &u
	vm.prefs = saved
	vm.displayName = name
	return nil
}

func (vm *ViewModel) persist(ctx context.Context, prefs model.Preferences) (model.Preferences, error) {
	existing, err := vm.find(ctx, prefs.UserID)
	if err != nil {
		return model.Preferences{}, err
	}
	if existing == nil {
		prefs.ID = ""
		return vm.store.CreatePreferences(ctx, prefs)
	}

	prefs.ID = existing.ID
	prefs.CreatedAt = existing.CreatedAt
	if err := vm.store.UpdatePreferences(ctx, existing.ID, prefs); err != nil {
		return model.Preferences{}, err
	}
	prefs.UpdatedAt = time.Now().UTC()
	return prefs, nil
}
