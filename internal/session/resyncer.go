package session

import (
	"context"
	"log/slog"
	"sync/atomic"

	"crm/internal/domain/entity"
	"crm/internal/domain/service"

	"crm/internal/errors"
)

// Resyncer keeps a Store reconciled with the identity provider after the
// initial guard seed. It has two triggers feeding one reconciliation path:
// explicit Sync calls (page became interactive, client-side navigation) and
// provider-pushed auth events consumed by Run.
type Resyncer struct {
	store    *Store
	provider service.IdentityProvider
	events   service.AuthEventSource
	logger   *slog.Logger

	// seq issues a monotonically increasing token per trigger. The Store
	// only accepts results newer than the last applied token, so a slow
	// verification can never overwrite a fresher one.
	seq atomic.Uint64
}

// NewResyncer wires a Resyncer around an existing store.
func NewResyncer(store *Store, provider service.IdentityProvider, events service.AuthEventSource, logger *slog.Logger) *Resyncer {
	return &Resyncer{
		store:    store,
		provider: provider,
		events:   events,
		logger:   logger,
	}
}

// Store returns the store this resyncer reconciles.
func (r *Resyncer) Store() *Store {
	return r.store
}

// Sync re-verifies the session against the provider and reconciles the
// store. A verification failure is indistinguishable from "signed out":
// reconciliation may only narrow access, never widen it. The result is
// discarded when a newer trigger finished first.
func (r *Resyncer) Sync(ctx context.Context, accessToken string) (Snapshot, error) {
	token := r.seq.Add(1)

	user, err := r.verify(ctx, accessToken)
	if err != nil && !errors.Is(err, service.ErrNoSession) {
		r.logger.Warn("Session re-verification failed, treating as signed out",
			slog.Any("error", err))
	}

	if applied := r.store.Apply(token, user); !applied {
		r.logger.Debug("Discarding stale session verification",
			slog.Uint64("token", token))
	}

	return r.store.Snapshot(), nil
}

// Run consumes the provider's auth event stream and reconciles the store on
// each event. It blocks until ctx is done and releases the subscription on
// the way out. Call it once per store lifetime.
func (r *Resyncer) Run(ctx context.Context) {
	events, unsubscribe := r.events.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			r.applyEvent(event)
		}
	}
}

// Logout signs out with the provider and clears the local state. It is
// idempotent, and a remote failure is logged but never blocks the local
// clear: the user must not stay trapped in an authenticated view.
func (r *Resyncer) Logout(ctx context.Context, accessToken string) {
	if accessToken != "" {
		if err := r.provider.SignOut(ctx, accessToken); err != nil {
			r.logger.Warn("Remote sign-out failed, clearing local session anyway",
				slog.Any("error", err))
		}
	}

	// Taking a fresh token means any verification that started before the
	// logout resolves with an older token and cannot resurrect the user.
	token := r.seq.Add(1)
	r.store.Apply(token, nil)
	r.store.Clear()
}

func (r *Resyncer) applyEvent(event service.AuthEvent) {
	token := r.seq.Add(1)

	var user *entity.AuthUser
	if event.Type != service.AuthEventSignedOut {
		user = event.User
	}

	r.store.Apply(token, user)
}

func (r *Resyncer) verify(ctx context.Context, accessToken string) (*entity.AuthUser, error) {
	if accessToken == "" {
		return nil, service.ErrNoSession
	}

	user, err := r.provider.VerifyToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return user, nil
}
