package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/jrsteele09/go-storefront/auth"
	"github.com/jrsteele09/go-storefront/users"
)

type otpRequest struct {
	Phone string `json:"phone"`
}

type otpVerify struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type otpSent struct {
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"` // DEV only
}

// OTPRequestHandler issues a one-time code. No SMS provider is wired, so the
// code is logged and, in DEV, returned in the response.
func (s *Server) OTPRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		code, err := s.otp.RequestCode(req.Phone)
		if err != nil {
			s.writeAuthError(w, err)
			return
		}

		resp := otpSent{Message: "OTP sent successfully"}
		if s.isDev() {
			s.logger.Info().Str("phone", req.Phone).Str("otp", code).Msg("otp issued")
			resp.OTP = code
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) OTPVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpVerify
		if !decodeJSON(w, r, &req) {
			return
		}
		result, err := s.otp.VerifyCode(req.Phone, req.OTP)
		if err != nil {
			s.writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var profile users.Profile
		if !decodeJSON(w, r, &profile) {
			return
		}
		if _, err := users.NormalizePhone(profile.Phone); err != nil {
			writeFieldErrors(w, map[string]string{"phone": err.Error()})
			return
		}
		result, err := s.otp.Register(profile)
		if err != nil {
			s.writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, userFromContext(r.Context()).Principal)
	}
}

// writeAuthError maps OTP service errors to status, code and detail.
func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, users.ErrInvalidPhone), errors.Is(err, users.ErrPhoneNotDigit):
		writeJSONError(w, http.StatusBadRequest, apierr.CodeInvalidPhone, "Invalid phone number")
	case errors.Is(err, auth.ErrRateLimited):
		writeJSONError(w, http.StatusTooManyRequests, apierr.CodeRateLimited, "Too many OTP requests. Please try again later.")
	case errors.Is(err, auth.ErrInvalidCode):
		writeJSONError(w, http.StatusBadRequest, apierr.CodeInvalidCode, "Invalid OTP")
	case errors.Is(err, auth.ErrCodeExpired):
		writeJSONError(w, http.StatusBadRequest, apierr.CodeCodeExpired, "OTP has expired")
	case errors.Is(err, auth.ErrTooManyAttempts):
		writeJSONError(w, http.StatusBadRequest, apierr.CodeInvalidCode, "Too many attempts. Request a new OTP.")
	case errors.Is(err, auth.ErrPhoneTaken):
		writeJSONError(w, http.StatusBadRequest, "", "User with this phone already exists")
	case errors.Is(err, auth.ErrUserInactive):
		writeJSONError(w, http.StatusForbidden, apierr.CodeUnauthorized, "User account is inactive")
	default:
		s.logger.Error().Err(err).Msg("auth request failed")
		writeJSONError(w, http.StatusInternalServerError, "", "Internal server error")
	}
}
