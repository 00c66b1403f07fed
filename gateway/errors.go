package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/tidwall/gjson"
)

// networkError reports a request that never produced a response.
func networkError(err error) error {
	msg := "could not reach the server"
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		msg = "the server took too long to respond"
	}
	return apierr.Wrap(apierr.ErrNetwork, err, msg)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// errorFromResponse maps an error status and body to a typed error. The body's
// "detail" is used as the message when present. It is either a string or a list
// of {loc, msg} field errors.
func errorFromResponse(status int, body []byte) error {
	e := &apierr.Error{Status: status}
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		e.Code = parsed.Get("code").String()
		detail := parsed.Get("detail")
		switch {
		case detail.IsArray():
			e.Fields = fieldErrors(detail)
			e.Message = "Please check the highlighted fields"
		case detail.Type == gjson.String:
			e.Message = detail.String()
		}
	}
	if e.Message == "" {
		e.Message = fallbackMessage(status)
	}
	e.Kind = kindFor(status, e.Code, e.Message)
	return e
}

func fieldErrors(detail gjson.Result) map[string]string {
	fields := make(map[string]string)
	detail.ForEach(func(_, item gjson.Result) bool {
		loc := item.Get("loc").Array()
		name := "body"
		if len(loc) > 0 {
			name = loc[len(loc)-1].String()
		}
		fields[name] = item.Get("msg").String()
		return true
	})
	return fields
}

func kindFor(status int, code, message string) error {
	if code == apierr.CodeOutOfStock {
		return apierr.ErrOutOfStock
	}
	switch code {
	case apierr.CodeInvalidCode, apierr.CodeCodeExpired, apierr.CodeRateLimited, apierr.CodeInvalidPhone, apierr.CodeUnauthorized:
		return apierr.ErrAuth
	}
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return apierr.ErrAuth
	case status == http.StatusNotFound:
		return apierr.ErrNotFound
	case status == http.StatusConflict:
		return apierr.ErrOutOfStock
	case status == http.StatusBadRequest && strings.HasPrefix(message, "Insufficient stock"):
		return apierr.ErrOutOfStock
	case status >= http.StatusInternalServerError:
		return apierr.ErrNetwork
	default:
		return apierr.ErrValidation
	}
}

func fallbackMessage(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Please log in again"
	case status == http.StatusForbidden:
		return "You do not have access to this store"
	case status == http.StatusNotFound:
		return "Not found"
	case status == http.StatusTooManyRequests:
		return "Too many requests, please wait and try again"
	case status >= http.StatusInternalServerError:
		return "The server is unavailable, please try again"
	default:
		return "The request was rejected"
	}
}
