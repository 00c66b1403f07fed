package users

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/jrsteele09/go-storefront/storemodel"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidPhone  = errors.New("invalid phone number")
	ErrPhoneNotDigit = errors.New("phone number must contain only digits")
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// Principal is an authenticated user identity as returned by the backend.
type Principal struct {
	ID          storemodel.ID `json:"id"`                  // Backend user identifier
	Phone       string        `json:"phone"`               // Login phone number
	DisplayName string        `json:"full_name,omitempty"` // Optional display name
	Email       string        `json:"email,omitempty"`     // Optional contact email
}

// Valid reports whether the principal carries the fields a session needs.
func (p *Principal) Valid() bool {
	return p != nil && !p.ID.IsZero() && p.Phone != ""
}

// Profile is the registration input for a new principal.
type Profile struct {
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// AuthResult is the backend response to a successful verify or register call.
type AuthResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        Principal `json:"user"`
}

// User is the backend's stored record of a principal.
type User struct {
	Principal
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login,omitempty"`
}

// NormalizePhone strips spaces, dashes and a leading plus sign and checks that
// what remains is 10 to 15 digits.
func NormalizePhone(phone string) (string, error) {
	v := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(strings.TrimSpace(phone))
	for _, r := range v {
		if !unicode.IsDigit(r) {
			return "", ErrPhoneNotDigit
		}
	}
	if len(v) < minPhoneDigits || len(v) > maxPhoneDigits {
		return "", ErrInvalidPhone
	}
	return v, nil
}

// HashCode hashes a one-time code for storage.
func HashCode(code string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckCodeHash reports whether code matches the stored hash.
func CheckCodeHash(code, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
	return err == nil
}
