// Package access guards owner-only screens. The backend remains the authority;
// the gate only keeps anonymous users out of screens that would fail anyway.
package access

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/jrsteele09/go-storefront/sessions"
)

// DefaultLoginPath is where anonymous users are sent.
const DefaultLoginPath = "/login"

// SessionSource provides the current session.
type SessionSource interface {
	Session() sessions.Session
}

// CanEnter reports whether an owner-only screen may be entered.
func CanEnter(session sessions.Session) bool {
	return session.Authenticated()
}

// Require returns an auth error when the current session may not enter.
func Require(source SessionSource) error {
	if source == nil || !CanEnter(source.Session()) {
		return &apierr.Error{Kind: apierr.ErrAuth, Message: "Please log in first", Code: apierr.CodeUnauthorized}
	}
	return nil
}

// RequireSession redirects anonymous requests to loginPath, passing the
// requested path as "next".
func RequireSession(source SessionSource, loginPath string) func(http.HandlerFunc) http.HandlerFunc {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if Require(source) != nil {
				target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next(w, r)
		}
	}
}
