// Package auth implements phone number login with one-time codes for the
// development backend.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-storefront/token"
	"github.com/jrsteele09/go-storefront/users"
	"golang.org/x/time/rate"
)

const (
	codeLength        = 6
	defaultCodeTTL    = 5 * time.Minute
	defaultRatePerMin = 3
	maxVerifyAttempts = 5
	bearerTokenType   = "bearer"
)

// Repos holds all repository dependencies for the OTPService
type Repos struct {
	Users users.UserRepo // Repository for user data
	Codes CodeRepo       // Repository for pending codes
}

// OTPService issues one-time codes and exchanges them for access tokens.
type OTPService struct {
	repos   Repos
	tokens  *token.Manager
	codeTTL time.Duration
	nowTime func() time.Time
	newCode func() (string, error)

	ratePerMinute int
	limitersLock  sync.Mutex
	limiters      map[string]*rate.Limiter
}

// OTPServiceOption defines a function type to modify the OTPService instance.
type OTPServiceOption func(*OTPService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) OTPServiceOption {
	return func(s *OTPService) {
		s.nowTime = nowFunc
	}
}

// WithCodeTTL sets how long a code stays valid.
func WithCodeTTL(ttl time.Duration) OTPServiceOption {
	return func(s *OTPService) {
		s.codeTTL = ttl
	}
}

// WithRatePerMinute sets how many codes a phone may request per minute.
func WithRatePerMinute(n int) OTPServiceOption {
	return func(s *OTPService) {
		s.ratePerMinute = n
	}
}

// WithCodeGenerator replaces the random code generator (primarily for testing)
func WithCodeGenerator(gen func() (string, error)) OTPServiceOption {
	return func(s *OTPService) {
		s.newCode = gen
	}
}

func NewOTPService(repos Repos, tokens *token.Manager, options ...OTPServiceOption) (*OTPService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewOTPService] Users repo is required")
	}
	if repos.Codes == nil {
		return nil, errors.New("[NewOTPService] Codes repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewOTPService] token manager is required")
	}
	s := &OTPService{
		repos:         repos,
		tokens:        tokens,
		codeTTL:       defaultCodeTTL,
		nowTime:       time.Now,
		newCode:       randomCode,
		ratePerMinute: defaultRatePerMin,
		limiters:      make(map[string]*rate.Limiter),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// RequestCode creates a code for phone, replacing any pending one, and returns
// it for delivery.
func (s *OTPService) RequestCode(phone string) (string, error) {
	phone, err := users.NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	if !s.limiter(phone).AllowN(s.nowTime(), 1) {
		return "", ErrRateLimited
	}

	code, err := s.newCode()
	if err != nil {
		return "", fmt.Errorf("[RequestCode] generate: %w", err)
	}
	hash, err := users.HashCode(code)
	if err != nil {
		return "", fmt.Errorf("[RequestCode] hash: %w", err)
	}
	entry := &CodeEntry{Phone: phone, CodeHash: hash, ExpiresAt: s.nowTime().Add(s.codeTTL)}
	if err := s.repos.Codes.Upsert(entry); err != nil {
		return "", fmt.Errorf("[RequestCode] store: %w", err)
	}
	return code, nil
}

// VerifyCode consumes the pending code for phone. The user is created on first
// login.
func (s *OTPService) VerifyCode(phone, code string) (*users.AuthResult, error) {
	phone, err := users.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	entry, err := s.repos.Codes.Get(phone)
	if errors.Is(err, ErrCodeNotFound) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("[VerifyCode] %w", err)
	}

	if s.nowTime().After(entry.ExpiresAt) {
		_ = s.repos.Codes.Delete(phone)
		return nil, ErrCodeExpired
	}
	if entry.Attempts >= maxVerifyAttempts {
		_ = s.repos.Codes.Delete(phone)
		return nil, ErrTooManyAttempts
	}
	if !users.CheckCodeHash(strings.TrimSpace(code), entry.CodeHash) {
		entry.Attempts++
		if err := s.repos.Codes.Upsert(entry); err != nil {
			return nil, fmt.Errorf("[VerifyCode] %w", err)
		}
		return nil, ErrInvalidCode
	}
	if err := s.repos.Codes.Delete(phone); err != nil {
		return nil, fmt.Errorf("[VerifyCode] %w", err)
	}

	user, err := s.repos.Users.GetByPhone(phone)
	if errors.Is(err, users.ErrUserNotFound) {
		user = &users.User{Principal: users.Principal{Phone: phone}, Active: true, CreatedAt: s.nowTime()}
	} else if err != nil {
		return nil, fmt.Errorf("[VerifyCode] %w", err)
	}
	return s.login(user)
}

// Register creates a user and logs it in.
func (s *OTPService) Register(profile users.Profile) (*users.AuthResult, error) {
	phone, err := users.NormalizePhone(profile.Phone)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Users.GetByPhone(phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, users.ErrUserNotFound) {
		return nil, fmt.Errorf("[Register] %w", err)
	}

	user := &users.User{
		Principal: users.Principal{
			Phone:       phone,
			Email:       strings.TrimSpace(profile.Email),
			DisplayName: strings.TrimSpace(profile.FullName),
		},
		Active:    true,
		CreatedAt: s.nowTime(),
	}
	return s.login(user)
}

// Authenticate returns the active user an access token was issued for.
func (s *OTPService) Authenticate(raw string) (*users.User, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	user, err := s.repos.Users.GetByID(claims.UserID())
	if err != nil {
		return nil, fmt.Errorf("[Authenticate] %w", err)
	}
	if !user.Active {
		return nil, ErrUserInactive
	}
	return user, nil
}

func (s *OTPService) login(user *users.User) (*users.AuthResult, error) {
	if !user.Active {
		return nil, ErrUserInactive
	}
	user.LastLogin = s.nowTime()
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, fmt.Errorf("[login] %w", err)
	}
	accessToken, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("[login] %w", err)
	}
	return &users.AuthResult{AccessToken: accessToken, TokenType: bearerTokenType, User: user.Principal}, nil
}

func (s *OTPService) limiter(phone string) *rate.Limiter {
	s.limitersLock.Lock()
	defer s.limitersLock.Unlock()
	l, ok := s.limiters[phone]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(max(s.ratePerMinute, 1))), max(s.ratePerMinute, 1))
		s.limiters[phone] = l
	}
	return l
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n.Int64()), nil
}
