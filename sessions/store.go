package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/rs/zerolog"
)

var codePattern = regexp.MustCompile(`^[0-9]{4,6}$`)

// Backend is the part of the HTTP contract the store depends on.
type Backend interface {
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (*users.AuthResult, error)
	Register(ctx context.Context, profile users.Profile) (*users.AuthResult, error)
}

// State is the login protocol state.
type State int

const (
	StateAnonymous State = iota
	StateCodeRequested
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateCodeRequested:
		return "code_requested"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Session is a snapshot of the store. Token is set iff Identity is set.
type Session struct {
	Identity *users.Principal
	Token    string
}

// Authenticated reports whether the snapshot carries a principal.
func (s Session) Authenticated() bool {
	return s.Identity != nil
}

// Store owns the authenticated identity and its credential, persists them
// across restarts and runs the two-phase OTP login.
type Store struct {
	backend Backend
	repo    Repo
	logger  zerolog.Logger

	mu           sync.RWMutex
	state        State
	identity     *users.Principal
	token        string
	pendingPhone string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an anonymous store. Call Bootstrap to rehydrate a persisted
// session.
func NewStore(backend Backend, repo Repo, options ...StoreOption) (*Store, error) {
	if backend == nil {
		return nil, errors.New("[NewStore] backend is required")
	}
	if repo == nil {
		return nil, errors.New("[NewStore] repo is required")
	}
	s := &Store{
		backend: backend,
		repo:    repo,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Bootstrap replaces the in-memory session with the persisted one. An absent
// record leaves the store anonymous. A malformed record is cleared and the
// store stays anonymous; it is never reported as an error.
func (s *Store) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()

	record, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, apierr.ErrCorruptState) {
			s.discard(ctx, err)
			return
		}
		s.logger.Warn().Err(err).Msg("session record unavailable")
		return
	}
	if record == nil {
		return
	}

	principal, err := decodeIdentity(*record)
	if err != nil {
		s.discard(ctx, err)
		return
	}

	s.identity = principal
	s.token = record.Token
	s.state = StateAuthenticated
	s.logger.Debug().Str("user", principal.ID.String()).Msg("session restored")
}

// RequestCode asks the backend to send a one-time code to phone. The session is
// not changed beyond remembering that a code is pending.
func (s *Store) RequestCode(ctx context.Context, phone string) error {
	normalized, err := users.NormalizePhone(phone)
	if err != nil {
		return &apierr.Error{Kind: apierr.ErrAuth, Message: "invalid phone number", Code: apierr.CodeInvalidPhone, Err: err}
	}

	if err := s.backend.RequestOTP(ctx, normalized); err != nil {
		return fmt.Errorf("[RequestCode] %w", asAuthError(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		s.state = StateCodeRequested
		s.pendingPhone = normalized
	}
	return nil
}

// VerifyCode exchanges a one-time code for a session. It does not require a
// prior RequestCode. On failure the session is unchanged.
func (s *Store) VerifyCode(ctx context.Context, phone, code string) (*users.Principal, error) {
	normalized, err := users.NormalizePhone(phone)
	if err != nil {
		return nil, &apierr.Error{Kind: apierr.ErrAuth, Message: "invalid phone number", Code: apierr.CodeInvalidPhone, Err: err}
	}
	if !codePattern.MatchString(code) {
		return nil, &apierr.Error{Kind: apierr.ErrAuth, Message: "invalid code", Code: apierr.CodeInvalidCode}
	}

	result, err := s.backend.VerifyOTP(ctx, normalized, code)
	if err != nil {
		return nil, fmt.Errorf("[VerifyCode] %w", err)
	}
	return s.activate(ctx, result)
}

// Register creates a principal and activates a session for it.
func (s *Store) Register(ctx context.Context, profile users.Profile) (*users.Principal, error) {
	normalized, err := users.NormalizePhone(profile.Phone)
	if err != nil {
		return nil, &apierr.Error{
			Kind:    apierr.ErrValidation,
			Message: "invalid phone number",
			Code:    apierr.CodeInvalidPhone,
			Fields:  map[string]string{"phone": err.Error()},
			Err:     err,
		}
	}
	profile.Phone = normalized

	result, err := s.backend.Register(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("[Register] %w", err)
	}
	return s.activate(ctx, result)
}

// Logout clears the in-memory and persisted session. It never fails; a
// storage error is logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	if err := s.repo.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear persisted session")
	}
}

// Session returns a snapshot of the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Session{}
	}
	identity := *s.identity
	return Session{Identity: &identity, Token: s.token}
}

// IsAuthenticated reports whether a principal is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// State returns the login protocol state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// PendingPhone returns the phone a code was last requested for while anonymous.
func (s *Store) PendingPhone() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingPhone
}

// Credential returns the bearer token, or "" when anonymous.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// activate persists then installs a session. The in-memory session only
// changes once the record is stored.
func (s *Store) activate(ctx context.Context, result *users.AuthResult) (*users.Principal, error) {
	if result == nil || result.AccessToken == "" || !result.User.Valid() {
		return nil, apierr.New(apierr.ErrAuth, "backend returned an incomplete session")
	}

	identity, err := json.Marshal(result.User)
	if err != nil {
		return nil, fmt.Errorf("[activate] encode identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, Record{Token: result.AccessToken, Identity: string(identity)}); err != nil {
		return nil, fmt.Errorf("[activate] persist session: %w", err)
	}

	principal := result.User
	s.identity = &principal
	s.token = result.AccessToken
	s.state = StateAuthenticated
	s.pendingPhone = ""
	s.logger.Info().Str("user", principal.ID.String()).Msg("session activated")

	out := principal
	return &out, nil
}

// discard drops a malformed persisted record. Caller holds s.mu.
func (s *Store) discard(ctx context.Context, cause error) {
	s.logger.Warn().Err(cause).Msg("discarding corrupt session record")
	if err := s.repo.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear corrupt session record")
	}
}

// reset returns the in-memory state to anonymous. Caller holds s.mu.
func (s *Store) reset() {
	s.state = StateAnonymous
	s.identity = nil
	s.token = ""
	s.pendingPhone = ""
}

func decodeIdentity(record Record) (*users.Principal, error) {
	if record.Token == "" || record.Identity == "" {
		return nil, apierr.New(apierr.ErrCorruptState, "half-populated session record")
	}
	var principal users.Principal
	if err := json.Unmarshal([]byte(record.Identity), &principal); err != nil {
		return nil, apierr.Wrap(apierr.ErrCorruptState, err, "unreadable session identity")
	}
	if !principal.Valid() {
		return nil, apierr.New(apierr.ErrCorruptState, "session identity missing id or phone")
	}
	return &principal, nil
}

// asAuthError reports backend rejections of a code request as authentication
// failures, whatever status the backend used.
func asAuthError(err error) error {
	var e *apierr.Error
	if errors.As(err, &e) && errors.Is(e.Kind, apierr.ErrValidation) {
		cp := *e
		cp.Kind = apierr.ErrAuth
		return &cp
	}
	return err
}
