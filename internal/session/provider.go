// Package session resolves and broadcasts the signed-in identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/sharedspace/internal/credential"
	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
)

// TokenStore persists the signed-in user's id between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type listener struct {
	id int
	fn func(model.SessionState)
}

// Provider owns the current SessionState. It starts in Loading until
// Restore or Login resolves it.
type Provider struct {
	store  store.Store
	tokens TokenStore
	log    *zap.Logger

	mu        sync.Mutex
	state     model.SessionState
	listeners []listener
	nextID    int
}

// NewProvider creates a provider in the Loading state.
func NewProvider(s store.Store, tokens TokenStore, log *zap.Logger) *Provider {
	return &Provider{
		store:  s,
		tokens: tokens,
		log:    log,
		state:  model.Loading(),
	}
}

// State returns the current session state.
func (p *Provider) State() model.SessionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Me returns the signed-in user.
func (p *Provider) Me() (model.User, bool) {
	return p.State().User()
}

// OnAuthStateChanged registers fn for every transition. fn is called
// right away with the current state. The returned func unregisters it.
func (p *Provider) OnAuthStateChanged(fn func(model.SessionState)) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners = append(p.listeners, listener{id: id, fn: fn})
	current := p.state
	p.mu.Unlock()

	fn(current)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, l := range p.listeners {
			if l.id == id {
				p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
				break
			}
		}
	}
}

// setState stores next and notifies listeners outside the lock.
func (p *Provider) setState(next model.SessionState) {
	p.mu.Lock()
	p.state = next
	listeners := append([]listener(nil), p.listeners...)
	p.mu.Unlock()

	p.log.Debug("session state changed", zap.Stringer("status", next.Status))
	for _, l := range listeners {
		l.fn(next)
	}
}

// Restore resolves the identity saved by a previous Login.
func (p *Provider) Restore(ctx context.Context) error {
	p.setState(model.Loading())

	token, err := p.tokens.Load()
	if errors.Is(err, credential.ErrNoSession) {
		p.setState(model.Unauthenticated())
		return nil
	}
	if err != nil {
		p.log.Error("loading session token failed", zap.Error(err))
		p.setState(model.Unauthenticated())
		return fmt.Errorf("restoring session: %w", err)
	}

	u, err := p.store.GetUserByID(ctx, token)
	if errors.Is(err, model.ErrNotFound) {
		p.log.Warn("saved session refers to unknown user", zap.String("user_id", token))
		if clearErr := p.tokens.Clear(); clearErr != nil {
			p.log.Error("clearing stale session token failed", zap.Error(clearErr))
		}
		p.setState(model.Unauthenticated())
		return nil
	}
	if err != nil {
		p.log.Error("restoring session failed", zap.String("user_id", token), zap.Error(err))
		p.setState(model.Unauthenticated())
		return fmt.Errorf("restoring session: %w", err)
	}

	p.setState(model.Authenticated(*u))
	return nil
}

// Login signs in as the user with email, creating the user on first use.
// displayName is only used when the user is created.
func (p *Provider) Login(ctx context.Context, email, displayName string) (model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return model.User{}, fmt.Errorf("%w: email is required", model.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.User{}, fmt.Errorf("%w: %q is not an email address", model.ErrValidation, email)
	}

	previous := p.State()
	p.setState(model.Loading())

	u, err := p.store.GetUserByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		var created model.User
		created, err = p.store.CreateUser(ctx, model.User{
			Email:       email,
			DisplayName: strings.TrimSpace(displayName),
		})
		u = &created
	}
	if err != nil {
		p.log.Error("login failed", zap.String("email", email), zap.Error(err))
		p.setState(previous)
		return model.User{}, fmt.Errorf("logging in %s: %w", email, err)
	}

	if err := p.tokens.Save(u.ID); err != nil {
		p.log.Warn("saving session token failed; session will not survive restart",
			zap.String("user_id", u.ID), zap.Error(err))
	}

	p.setState(model.Authenticated(*u))
	return *u, nil
}

// Logout forgets the saved session and signs out.
func (p *Provider) Logout(ctx context.Context) error {
	var err error
	if clearErr := p.tokens.Clear(); clearErr != nil {
		p.log.Error("clearing session token failed", zap.Error(clearErr))
		err = fmt.Errorf("logging out: %w", clearErr)
	}
	p.setState(model.Unauthenticated())
	return err
}

// UpdateMe changes the signed-in user's display name.
func (p *Provider) UpdateMe(ctx context.Context, displayName string) error {
	u, ok := p.Me()
	if !ok {
		return model.ErrUnauthenticated
	}

	displayName = strings.TrimSpace(displayName)
	if err := p.store.UpdateUserDisplayName(ctx, u.ID, displayName); err != nil {
		p.log.Error("updating display name failed", zap.String("user_id", u.ID), zap.Error(err))
		return fmt.Errorf("updating profile: %w", err)
	}

	u.DisplayName = displayName
	p.setState(model.Authenticated(u))
	return nil
}
