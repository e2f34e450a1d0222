package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tourcat/tourcat-go/api"
	"github.com/tourcat/tourcat-go/credentials"
)

// Authority endpoints consumed by the session manager.
const (
	loginPath    = "/users/token/"
	registerPath = "/users/register/"
	profilePath  = "/users/profile/"
)

// UserProfile is the authenticated user's profile as issued by the remote
// authority. It is an immutable snapshot, replaced wholesale on login,
// renewal or profile refresh.
type UserProfile struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	IsSeller bool   `json:"is_seller"`
	Address  string `json:"address"`
}

// RegisterParams carries a registration request. Validation runs locally
// before any network call; the authority's own validation errors are
// surfaced verbatim as *api.Error.
type RegisterParams struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// ProfileUpdate carries a partial profile update. Nil fields are left
// untouched on the server.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// registerRequest mirrors the authority's registration payload, which expects
// the password twice.
type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// Manager exposes login, registration, logout and the current-user
// projection derived from the credential store. It owns the in-memory user
// snapshot for the lifetime of the process and reconstructs it from the
// store on Start.
type Manager struct {
	api      *api.Client
	store    credentials.Store
	validate *validator.Validate
	log      zerolog.Logger

	mu           sync.RWMutex
	user         *UserProfile
	initializing bool

	subMu     sync.Mutex
	signedOut []func()
}

// ManagerOption modifies a Manager during construction.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a session manager on top of the API client and the
// credential store. The manager reports Initializing until Start has run.
func NewManager(apiClient *api.Client, store credentials.Store, options ...ManagerOption) (*Manager, error) {
	if apiClient == nil {
		return nil, errors.New("[NewManager] api client is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] credential store is required")
	}

	m := &Manager{
		api:          apiClient,
		store:        store,
		validate:     validator.New(),
		log:          zerolog.Nop(),
		initializing: true,
	}

	for _, opt := range options {
		opt(m)
	}

	// An unrecoverable renewal failure has already cleared the store; drop
	// the cached user and tell subscribers.
	apiClient.OnSignedOut(m.handleForcedSignOut)

	return m, nil
}

// Start performs startup rehydration: if an access credential survived from a
// previous run, the profile is fetched to repopulate the current user. A
// failed fetch clears both credentials, leaving the session anonymous.
func (m *Manager) Start(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.initializing = false
		m.mu.Unlock()
	}()

	if !m.store.Get().HasAccess() {
		return
	}

	user, err := m.fetchProfile(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("session rehydration failed")
		m.store.Clear()
		return
	}

	m.setUser(user)
}

// Login exchanges the email/password pair for a credential pair, stores it,
// and fetches the user's profile. The authority's rejection is returned
// unchanged; login never triggers the renewal protocol.
func (m *Manager) Login(ctx context.Context, email, password string) (*UserProfile, error) {
	req := loginRequest{Email: email, Password: password}
	if err := m.validate.Struct(req); err != nil {
		return nil, errors.Wrap(err, "Manager.Login")
	}

	call := &api.Call{Method: http.MethodPost, Path: loginPath, Body: req, Authless: true}
	outcome, err := m.api.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	if err := outcome.Err(); err != nil {
		return nil, err
	}

	var tokens loginResponse
	if err := outcome.Decode(&tokens); err != nil {
		return nil, err
	}
	m.store.SetBoth(tokens.Access, tokens.Refresh)

	user, err := m.fetchProfile(ctx)
	if err != nil {
		return nil, err
	}
	m.setUser(user)
	return user, nil
}

// Register creates the account and immediately logs in with the same
// credentials. No session is issued by registration itself.
func (m *Manager) Register(ctx context.Context, params RegisterParams) (*UserProfile, error) {
	if err := m.validate.Struct(params); err != nil {
		return nil, errors.Wrap(err, "Manager.Register")
	}

	req := registerRequest{
		Email:     params.Email,
		Username:  params.Username,
		Phone:     params.Phone,
		Password:  params.Password,
		Password2: params.Password,
	}
	call := &api.Call{Method: http.MethodPost, Path: registerPath, Body: req, Authless: true}
	outcome, err := m.api.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	if err := outcome.Err(); err != nil {
		return nil, err
	}

	return m.Login(ctx, params.Email, params.Password)
}

// Logout clears the persisted credentials and the cached user. It is purely
// local, synchronous and idempotent; no network call is made.
func (m *Manager) Logout() {
	m.store.Clear()
	m.setUser(nil)
}

// CurrentUser returns the cached profile, or nil while anonymous.
func (m *Manager) CurrentUser() *UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Initializing reports whether startup rehydration is still pending.
func (m *Manager) Initializing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initializing
}

// OnSignedOut registers fn to run after a forced sign-out (unrecoverable
// renewal failure). The caller decides how to react, e.g. by navigating to a
// login surface.
func (m *Manager) OnSignedOut(fn func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.signedOut = append(m.signedOut, fn)
}

// Profile fetches a fresh profile snapshot and replaces the cached user.
func (m *Manager) Profile(ctx context.Context) (*UserProfile, error) {
	user, err := m.fetchProfile(ctx)
	if err != nil {
		return nil, err
	}
	m.setUser(user)
	return user, nil
}

// UpdateProfile applies a partial update and caches the returned snapshot.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) (*UserProfile, error) {
	var user UserProfile
	if err := m.api.Patch(ctx, profilePath, update, &user); err != nil {
		return nil, err
	}
	m.setUser(&user)
	return &user, nil
}

func (m *Manager) fetchProfile(ctx context.Context) (*UserProfile, error) {
	var user UserProfile
	if err := m.api.Get(ctx, profilePath, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *Manager) setUser(user *UserProfile) {
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
}

func (m *Manager) handleForcedSignOut() {
	m.setUser(nil)

	m.subMu.Lock()
	subscribers := make([]func(), len(m.signedOut))
	copy(subscribers, m.signedOut)
	m.subMu.Unlock()

	for _, fn := range subscribers {
		fn()
	}
}
