package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"crm/internal/domain/entity"
	"crm/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider implements service.IdentityProvider with programmable
// verification behavior. VerifyToken blocks until the per-call gate is
// released, which lets tests interleave completions deliberately.
type fakeProvider struct {
	mu       sync.Mutex
	users    map[string]*entity.AuthUser // token -> user
	gates    map[string]chan struct{}    // token -> release gate
	signOuts int
	soErr    error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		users: make(map[string]*entity.AuthUser),
		gates: make(map[string]chan struct{}),
	}
}

func (p *fakeProvider) setUser(token string, user *entity.AuthUser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[token] = user
}

func (p *fakeProvider) gate(token string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan struct{})
	p.gates[token] = ch

	return ch
}

func (p *fakeProvider) VerifyToken(_ context.Context, accessToken string) (*entity.AuthUser, error) {
	p.mu.Lock()
	gate := p.gates[accessToken]
	user := p.users[accessToken]
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if user == nil {
		return nil, service.ErrNoSession
	}

	return user, nil
}

func (p *fakeProvider) SignInWithPassword(context.Context, string, string) (*service.AuthSession, error) {
	return nil, service.ErrNoSession
}

func (p *fakeProvider) RefreshSession(context.Context, string) (*service.AuthSession, error) {
	return nil, service.ErrNoSession
}

func (p *fakeProvider) SignUp(context.Context, string, string, map[string]any) (*service.AuthSession, error) {
	return nil, service.ErrNoSession
}

func (p *fakeProvider) SignOut(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts++

	return p.soErr
}

func (p *fakeProvider) UpdatePassword(context.Context, string, string) error {
	return nil
}

func (p *fakeProvider) ResetPasswordForEmail(context.Context, string) error {
	return nil
}

// fakeEvents is an in-memory AuthEventSource.
type fakeEvents struct {
	ch chan service.AuthEvent

	mu           sync.Mutex
	unsubscribed bool
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{ch: make(chan service.AuthEvent, 8)}
}

func (e *fakeEvents) Subscribe() (<-chan service.AuthEvent, func()) {
	return e.ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.unsubscribed = true
	}
}

func newTestResyncer(provider *fakeProvider, events *fakeEvents, seed *entity.AuthUser) *Resyncer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewResyncer(NewStore(seed), provider, events, logger)
}

func TestResyncer_SyncReconcilesStore(t *testing.T) {
	provider := newFakeProvider()
	user := testUser("sync@example.com")
	provider.setUser("tok-1", user)

	resyncer := newTestResyncer(provider, newFakeEvents(), nil)

	snap, err := resyncer.Sync(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, user.ID, snap.User.ID)

	// Cookie invalidated out-of-band: the next sync narrows to signed out.
	provider.setUser("tok-1", nil)

	snap, err = resyncer.Sync(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
}

func TestResyncer_SyncWithoutTokenIsSignedOut(t *testing.T) {
	resyncer := newTestResyncer(newFakeProvider(), newFakeEvents(), testUser("seed@example.com"))

	snap, err := resyncer.Sync(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, snap.IsAuthenticated)
}

func TestResyncer_StaleVerificationDiscarded(t *testing.T) {
	provider := newFakeProvider()
	userA := testUser("a@example.com")
	userB := testUser("b@example.com")
	provider.setUser("tok-a", userA)
	provider.setUser("tok-b", userB)

	// Verification A blocks until released; B completes immediately.
	gateA := provider.gate("tok-a")

	resyncer := newTestResyncer(provider, newFakeEvents(), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = resyncer.Sync(context.Background(), "tok-a")
	}()

	// Make sure A's trigger token is issued before B starts.
	require.Eventually(t, func() bool {
		return resyncer.seq.Load() >= 1
	}, time.Second, time.Millisecond)

	_, err := resyncer.Sync(context.Background(), "tok-b")
	require.NoError(t, err)

	// A resolves after B finished; its result must be dropped.
	close(gateA)
	wg.Wait()

	snap := resyncer.Store().Snapshot()
	require.True(t, snap.IsAuthenticated)
	assert.Equal(t, userB.ID, snap.User.ID, "store must keep the newer verification's result")
}

func TestResyncer_LogoutIdempotentAndFailureTolerant(t *testing.T) {
	provider := newFakeProvider()
	provider.soErr = context.DeadlineExceeded // remote sign-out failing

	resyncer := newTestResyncer(provider, newFakeEvents(), testUser("out@example.com"))

	resyncer.Logout(context.Background(), "tok-1")
	assert.False(t, resyncer.Store().IsAuthenticated(), "local state must clear despite remote failure")

	// Second logout must not panic or error, and the state stays cleared.
	resyncer.Logout(context.Background(), "tok-1")
	assert.False(t, resyncer.Store().IsAuthenticated())
	assert.Equal(t, 2, provider.signOuts)

	// Logout without a token skips the remote call entirely.
	resyncer.Logout(context.Background(), "")
	assert.Equal(t, 2, provider.signOuts)
}

func TestResyncer_RunAppliesEventsAndUnsubscribes(t *testing.T) {
	provider := newFakeProvider()
	events := newFakeEvents()
	resyncer := newTestResyncer(provider, events, nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		resyncer.Run(ctx)
	}()

	user := testUser("event@example.com")
	events.ch <- service.AuthEvent{Type: service.AuthEventSignedIn, User: user}

	require.Eventually(t, func() bool {
		return resyncer.Store().IsAuthenticated()
	}, time.Second, time.Millisecond)

	events.ch <- service.AuthEvent{Type: service.AuthEventSignedOut}

	require.Eventually(t, func() bool {
		return !resyncer.Store().IsAuthenticated()
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	events.mu.Lock()
	defer events.mu.Unlock()
	assert.True(t, events.unsubscribed, "subscription must be released on teardown")
}
