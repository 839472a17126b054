package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sentiview/internal/credentials"
	"github.com/wolfeidau/sentiview/internal/models"
	"github.com/wolfeidau/sentiview/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// API is the subset of the backend the session needs.
// Every authenticated call receives the bearer token explicitly.
type API interface {
	Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
	Register(ctx context.Context, reg models.Registration) error
	Me(ctx context.Context, token string) (*models.User, error)
	UpdateMe(ctx context.Context, token string, update models.ProfileUpdate) (*models.ProfileUpdateResult, error)
	Logout(ctx context.Context, token string) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger used for session events.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics sets the metric instruments.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithDiagnostics registers a callback for locally recovered failures.
func WithDiagnostics(fn func(Diagnostic)) Option {
	return func(m *Manager) { m.onDiagnostic = fn }
}

// WithLogoutNotification toggles the best effort POST /auth/logout.
func WithLogoutNotification(enabled bool) Option {
	return func(m *Manager) { m.notifyLogout = enabled }
}

// WithLogoutTimeout bounds the best effort logout notification.
func WithLogoutTimeout(d time.Duration) Option {
	return func(m *Manager) { m.logoutTimeout = d }
}

// Manager owns the session. It is the only writer of session state; views
// read it through State, Ready and Subscribe.
type Manager struct {
	api           API
	store         credentials.TokenStore
	now           func() time.Time
	logger        zerolog.Logger
	metrics       *telemetry.Metrics
	onDiagnostic  func(Diagnostic)
	notifyLogout  bool
	logoutTimeout time.Duration

	mu    sync.Mutex
	state Snapshot
	// gen changes on every login, logout and profile update so a slower
	// operation can tell its view of the session is stale.
	gen     uint64
	subs    map[int]chan Snapshot
	nextSub int

	verifyOnce sync.Once
	ready      chan struct{}
	pending    sync.WaitGroup
}

// New creates a manager in the loading state. Call StartupVerify once.
func New(api API, store credentials.TokenStore, opts ...Option) *Manager {
	m := &Manager{
		api:           api,
		store:         store,
		now:           time.Now,
		logger:        log.Logger,
		notifyLogout:  true,
		logoutTimeout: 5 * time.Second,
		state:         Snapshot{Loading: true},
		subs:          make(map[int]chan Snapshot),
		ready:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.metrics == nil {
		m.metrics = telemetry.GetMetrics()
	}

	return m
}

// State returns the current snapshot.
func (m *Manager) State() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Ready is closed once startup verification has finished.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady blocks until startup verification has finished.
func (m *Manager) WaitReady(ctx context.Context) (Snapshot, error) {
	select {
	case <-m.ready:
		return m.State(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Subscribe returns a channel receiving every new snapshot. The channel holds
// only the latest snapshot; a slow reader skips intermediate ones.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Snapshot, 1)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}

// publishLocked delivers the current state to subscribers. m.mu must be held.
func (m *Manager) publishLocked() {
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- m.state.clone()
	}
}

// StartupVerify restores the session from the token store. It runs once;
// later calls wait for the first to finish. Failures are never returned:
// the session degrades to unauthenticated and a Diagnostic is emitted.
func (m *Manager) StartupVerify(ctx context.Context) Snapshot {
	m.verifyOnce.Do(func() {
		m.verify(ctx)
	})
	<-m.ready
	return m.State()
}

func (m *Manager) verify(ctx context.Context) {
	m.mu.Lock()
	startGen := m.gen
	m.mu.Unlock()

	var (
		token string
		user  *models.User
		diag  Diagnostic
	)

	defer func() {
		m.mu.Lock()
		if m.gen == startGen && user != nil {
			m.state.Token = token
			m.state.User = user
		}
		m.state.Loading = false
		m.publishLocked()
		m.mu.Unlock()

		m.metrics.VerificationsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("outcome", string(diag.Kind))))
		m.emit(diag)
		close(m.ready)
	}()

	stored, ok, err := m.store.Read()
	if err != nil {
		diag = Diagnostic{Kind: DiagnosticStoreError, Err: err}
		m.purge(startGen)
		return
	}
	if !ok {
		diag = Diagnostic{Kind: DiagnosticNoToken}
		return
	}

	fp := credentials.Fingerprint(stored)

	if _, err := credentials.Validate(stored, m.now()); err != nil {
		kind := DiagnosticMalformedToken
		if errors.Is(err, credentials.ErrTokenExpired) {
			kind = DiagnosticTokenExpired
		}
		diag = Diagnostic{Kind: kind, Err: err, Fingerprint: fp}
		m.purge(startGen)
		return
	}

	profile, err := m.api.Me(ctx, stored)
	if err != nil {
		// the caller gave up, the token itself may still be good
		if ctx.Err() != nil {
			diag = Diagnostic{Kind: DiagnosticCancelled, Err: err, Fingerprint: fp}
			return
		}
		diag = Diagnostic{Kind: DiagnosticProfileFetchFailed, Err: err, Fingerprint: fp}
		m.purge(startGen)
		return
	}

	token, user = stored, profile
	diag = Diagnostic{Kind: DiagnosticVerified, Fingerprint: fp}
}

// purge clears the store unless another operation has taken over the session.
func (m *Manager) purge(startGen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != startGen {
		return
	}
	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear stored token")
	}
}

func (m *Manager) emit(d Diagnostic) {
	d.At = m.now()

	switch d.Kind {
	case DiagnosticVerified:
		m.logger.Debug().Str("fingerprint", d.Fingerprint).Msg("session restored")
	case DiagnosticNoToken:
		m.logger.Debug().Msg("no stored token, starting signed out")
	case DiagnosticCancelled:
		m.logger.Debug().Err(d.Err).Msg("session verification cancelled, stored token kept")
	default:
		m.logger.Warn().
			Err(d.Err).
			Str("kind", string(d.Kind)).
			Str("fingerprint", d.Fingerprint).
			Msg("session recovered locally")
	}

	if m.onDiagnostic != nil {
		m.onDiagnostic(d)
	}
}

// Login exchanges credentials for a token, persists it and loads the profile.
// Token and user become visible together. If the profile fetch fails the
// token is left persisted and ErrProfileFetch is returned.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	err := m.login(ctx, email, password)
	if err != nil {
		m.metrics.LoginErrorsTotal.Add(ctx, 1)
		return err
	}
	m.metrics.LoginsTotal.Add(ctx, 1)
	return nil
}

func (m *Manager) login(ctx context.Context, email, password string) error {
	resp, err := m.api.Login(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}

	if resp.AccessToken == "" {
		return ErrNoTokenReceived
	}
	token := resp.AccessToken

	if err := m.store.Save(token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	user, err := m.api.Me(ctx, token)
	if err != nil {
		m.logger.Warn().Err(err).Str("fingerprint", credentials.Fingerprint(token)).Msg("profile fetch after login failed")
		return fmt.Errorf("%w: %w", ErrProfileFetch, err)
	}

	m.mu.Lock()
	m.gen++
	m.state.Token = token
	m.state.User = user
	m.publishLocked()
	m.mu.Unlock()

	m.logger.Info().Str("email", user.Email).Msg("logged in")

	return nil
}

// Register creates an account and then logs in with the same credentials.
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	m.metrics.RegistrationsTotal.Add(ctx, 1)

	if err := m.api.Register(ctx, models.Registration{Name: name, Email: email, Password: password}); err != nil {
		return err
	}

	return m.Login(ctx, email, password)
}

// Logout clears the session locally and returns immediately. The backend is
// told in the background; that call cannot fail the logout.
func (m *Manager) Logout() {
	m.mu.Lock()
	token := m.state.Token
	if token == "" {
		// a token persisted by a login whose profile fetch failed
		if stored, ok, err := m.store.Read(); err == nil && ok {
			token = stored
		}
	}
	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear stored token")
	}
	m.gen++
	m.state.Token = ""
	m.state.User = nil
	m.publishLocked()
	m.mu.Unlock()

	m.metrics.LogoutsTotal.Add(context.Background(), 1)

	if token == "" || !m.notifyLogout {
		return
	}

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.logoutTimeout)
		defer cancel()

		if err := m.api.Logout(ctx, token); err != nil {
			m.logger.Debug().Err(err).Msg("logout notification failed")
			m.emit(Diagnostic{Kind: DiagnosticLogoutNotifyFailed, Err: err, Fingerprint: credentials.Fingerprint(token)})
		}
	}()
}

// Wait blocks until background logout notifications have finished.
func (m *Manager) Wait() {
	m.pending.Wait()
}

// UpdateProfile sends the changed fields and merges the returned user into
// the session. A rotated token is persisted and adopted. On failure the
// session is left untouched.
func (m *Manager) UpdateProfile(ctx context.Context, update models.ProfileUpdate) error {
	m.mu.Lock()
	current := m.state.clone()
	startGen := m.gen
	m.mu.Unlock()

	if !current.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	m.metrics.ProfileUpdatesTotal.Add(ctx, 1)

	res, err := m.api.UpdateMe(ctx, current.Token, update)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProfileUpdate, err)
	}

	user := *current.User
	user.Apply(res.User)
	user.Touch(m.now())

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != startGen {
		m.logger.Debug().Msg("session changed during profile update, dropping result")
		return nil
	}

	var persistErr error
	if res.Token != "" {
		if err := m.store.Save(res.Token); err != nil {
			persistErr = fmt.Errorf("failed to persist rotated token: %w", err)
		}
		m.state.Token = res.Token
	}

	m.gen++
	m.state.User = &user
	m.publishLocked()

	return persistErr
}
