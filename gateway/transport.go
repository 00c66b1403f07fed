package gateway

import (
	"net/http"

	"golang.org/x/oauth2"
)

// bearerTransport attaches the current credential when there is one. The
// credential is read per request so a login or logout takes effect on the next
// call.
type bearerTransport struct {
	source func() CredentialSource
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := ""
	if src := t.source(); src != nil {
		token = src.Credential()
	}
	if token == "" {
		return t.baseTransport().RoundTrip(req)
	}
	authed := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   t.baseTransport(),
	}
	return authed.RoundTrip(req)
}

func (t *bearerTransport) baseTransport() http.RoundTripper {
	if t.base != nil {
		return t.base
	}
	return http.DefaultTransport
}
