package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-chat-portal/backend"
	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/jrsteele09/go-chat-portal/internal/logutil"
	"github.com/jrsteele09/go-chat-portal/users"
)

const (
	msgServiceUnavailable = "The service is unavailable, please try again later."
	msgUnexpectedError    = "An unexpected error occurred."
)

// Known ?error= codes on the error page. Anything else shows the generic
// message so the page cannot be used to display arbitrary text.
var errorPageMessages = map[string]string{
	"CredentialsSignin":  msgInvalidLogin,
	"SessionRequired":    "Please sign in to continue.",
	"SessionExpired":     "Your session has expired, please sign in again.",
	"BackendUnavailable": msgServiceUnavailable,
	"Configuration":      "The server is misconfigured.",
}

func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, r, http.StatusOK, pageIndex, s.newPageData(r, "Home"))
	}
}

// NotFoundHandler renders the error page for unknown paths.
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, "Not found")
		data.Message = "404 - Page Not Found"
		s.renderPage(w, r, http.StatusNotFound, pageError, data)
	}
}

func (s *Server) ErrorPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, "Error")
		data.Message = msgUnexpectedError
		if msg, ok := errorPageMessages[r.URL.Query().Get("error")]; ok {
			data.Message = msg
		}
		s.renderPage(w, r, http.StatusOK, pageError, data)
	}
}

// REGISTER

func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, r, http.StatusOK, pageRegister, s.newPageData(r, "Register"))
	}
}

func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !parseForm(w, r) {
			return
		}
		reg := users.Registration{
			Username: strings.TrimSpace(r.FormValue("username")),
			Email:    strings.TrimSpace(r.FormValue("email")),
			Password: r.FormValue("password"),
		}

		data := s.newPageData(r, "Register")
		data.Form = map[string]string{"username": reg.Username, "email": reg.Email}

		if err := reg.Validate(); err != nil {
			data.FieldErrors = fieldErrors(err)
			s.renderPage(w, r, http.StatusBadRequest, pageRegister, data)
			return
		}

		reply, err := s.forwardJSON(r.Context(), backend.PathSignUp, reg, nil)
		if status, msg, failed := s.checkReply(r.Context(), reply, err, "Registration failed"); failed {
			data.Error = msg
			s.renderPage(w, r, status, pageRegister, data)
			return
		}
		redirectSuccess(w, r, s.config.GetSignInPage()+"?registered=1")
	}
}

// FORGOT PASSWORD

const (
	stepEmail    = "email"
	stepOTP      = "otp"
	stepPassword = "password"
)

func (s *Server) ForgotPasswordPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, "Reset password")
		data.Step = stepEmail
		s.renderPage(w, r, http.StatusOK, pageForgotPassword, data)
	}
}

// ForgotPasswordSubmissionHandler drives the three step reset: request a
// code, verify it, then set the new password. The backend remembers which
// emails passed verification.
func (s *Server) ForgotPasswordSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !parseForm(w, r) {
			return
		}
		data := s.newPageData(r, "Reset password")
		data.Email = strings.TrimSpace(r.FormValue("email"))
		data.Step = r.FormValue("step")

		var (
			path    string
			payload any
			next    string
			notice  string
			verr    error
		)
		switch data.Step {
		case stepOTP:
			req := users.OTPRequest{Email: data.Email, OTP: strings.TrimSpace(r.FormValue("otp"))}
			if req.OTP == "" {
				verr = users.ValidationErrors{{Field: "otp", Message: "Code is required"}}
			} else {
				verr = req.Validate()
			}
			path, payload, next, notice = backend.PathVerifyOTP, req, stepPassword, "Code verified, choose a new password."
		case stepPassword:
			req := users.PasswordReset{Email: data.Email, Password: r.FormValue("password")}
			verr = req.Validate()
			path, payload = backend.PathResetPassword, req
		default:
			data.Step = stepEmail
			req := users.OTPRequest{Email: data.Email}
			verr = req.Validate()
			path, payload, next, notice = backend.PathGetOTP, req, stepOTP, "A code has been sent to your email."
		}

		if verr != nil {
			data.Error = firstError(verr)
			s.renderPage(w, r, http.StatusBadRequest, pageForgotPassword, data)
			return
		}

		reply, err := s.forwardJSON(r.Context(), path, payload, nil)
		if status, msg, failed := s.checkReply(r.Context(), reply, err, "Password reset failed"); failed {
			data.Error = msg
			s.renderPage(w, r, status, pageForgotPassword, data)
			return
		}

		if next == "" {
			redirectSuccess(w, r, s.config.GetSignInPage()+"?reset=1")
			return
		}
		data.Step = next
		data.Notice = notice
		s.renderPage(w, r, http.StatusOK, pageForgotPassword, data)
	}
}

// CHANGE PASSWORD

func (s *Server) ChangePasswordPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, "Change password")
		if data.Session != nil {
			data.Email = data.Session.User.Email
		}
		s.renderPage(w, r, http.StatusOK, pageChangePassword, data)
	}
}

func (s *Server) ChangePasswordSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !parseForm(w, r) {
			return
		}
		req := users.PasswordChange{
			Email:       strings.TrimSpace(r.FormValue("email")),
			OldPassword: r.FormValue("oldPassword"),
			NewPassword: r.FormValue("newPassword"),
		}

		data := s.newPageData(r, "Change password")
		data.Email = req.Email

		if err := req.Validate(); err != nil {
			data.FieldErrors = fieldErrors(err)
			s.renderPage(w, r, http.StatusBadRequest, pageChangePassword, data)
			return
		}

		reply, err := s.forwardJSON(r.Context(), backend.PathChangePassword, req, resolveBearer(r, accessBearer))
		if status, msg, failed := s.checkReply(r.Context(), reply, err, "Password change failed"); failed {
			data.Error = msg
			s.renderPage(w, r, status, pageChangePassword, data)
			return
		}
		data.Notice = "Your password has been changed."
		s.renderPage(w, r, http.StatusOK, pageChangePassword, data)
	}
}

// PROFILE

func (s *Server) ProfilePageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, "Profile")
		profile, err := s.fetchProfile(r.Context(), sessionAccessToken(r))
		if err != nil {
			logger := logutil.GetOrDefault(r.Context())
			logger.Warn().Err(err).Msg("failed to load profile")
			data.Error = "Your profile could not be loaded."
			if data.Session != nil {
				data.Profile = &users.Profile{Username: data.Session.User.Username}
			}
			s.renderPage(w, r, http.StatusBadGateway, pageProfile, data)
			return
		}
		data.Profile = profile
		s.renderPage(w, r, http.StatusOK, pageProfile, data)
	}
}

func (s *Server) ProfileSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !parseForm(w, r) {
			return
		}
		profile := users.Profile{
			Username:    strings.TrimSpace(r.FormValue("username")),
			Name:        strings.TrimSpace(r.FormValue("name")),
			DateOfBirth: strings.TrimSpace(r.FormValue("dateOfBirth")),
			Height:      formFloat(r.FormValue("height")),
			Weight:      formFloat(r.FormValue("weight")),
		}

		data := s.newPageData(r, "Profile")
		if data.Session != nil {
			profile.Username = data.Session.User.Username
		}
		data.Profile = &profile

		if err := profile.Validate(); err != nil {
			data.FieldErrors = fieldErrors(err)
			profile.Derive()
			s.renderPage(w, r, http.StatusBadRequest, pageProfile, data)
			return
		}

		token := sessionAccessToken(r)
		reply, err := s.forwardJSON(r.Context(), backend.PathUpdateInfo, profile, users.BearerToken(token))
		if status, msg, failed := s.checkReply(r.Context(), reply, err, "Profile update failed"); failed {
			data.Error = msg
			profile.Derive()
			s.renderPage(w, r, status, pageProfile, data)
			return
		}
		s.profiles.Invalidate(token)
		redirectSuccess(w, r, RouteProfile)
	}
}

// fetchProfile reads the profile through the cache. The cached value is the
// raw backend body so the page and the getInfo proxy share entries.
func (s *Server) fetchProfile(ctx context.Context, accessToken string) (*users.Profile, error) {
	body, ok := s.profiles.Get(accessToken)
	if !ok {
		reply, err := s.backend.Forward(ctx, backend.Call{
			Method: http.MethodPost,
			Path:   backend.PathGetInfo,
			Bearer: users.BearerToken(accessToken),
		})
		if err != nil {
			return nil, err
		}
		if !reply.OK() {
			return nil, apperrors.Wrapf(apperrors.ErrBackendUnavailable, "getInfo returned %d", reply.Status)
		}
		body = reply.Body
		if err := s.profiles.Set(accessToken, body); err != nil {
			logger := logutil.GetOrDefault(ctx)
			logger.Warn().Err(err).Msg("failed to cache profile")
		}
	}

	var envelope struct {
		Data users.Profile `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrMalformedResponse, "decoding profile: %v", err)
	}
	envelope.Data.Derive()
	return &envelope.Data, nil
}

// checkReply turns a forward outcome into a page status and message.
func (s *Server) checkReply(ctx context.Context, reply *backend.Reply, err error, fallback string) (int, string, bool) {
	if err != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Error().Err(err).Msg("backend request failed")
		return http.StatusBadGateway, msgServiceUnavailable, true
	}
	if !reply.OK() {
		status := reply.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		return status, upstreamMessage(reply.Body, fallback), true
	}
	return 0, "", false
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return false
	}
	return true
}

func firstError(err error) string {
	var verrs users.ValidationErrors
	if apperrors.As(err, &verrs) {
		return verrs.First()
	}
	return err.Error()
}

// formFloat parses an optional number field. Blank is zero; anything that
// does not parse comes back as NaN so validation reports it.
func formFloat(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
