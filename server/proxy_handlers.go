package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jrsteele09/go-chat-portal/backend"
	"github.com/jrsteele09/go-chat-portal/internal/logutil"
	"golang.org/x/oauth2"
)

// BearerPolicy says where a proxy route's Authorization header comes from.
type BearerPolicy int

const (
	BearerNone BearerPolicy = iota
	BearerOptional
	BearerAccessRequired
	BearerRefreshRequired
)

func (p BearerPolicy) String() string {
	switch p {
	case BearerOptional:
		return "optional"
	case BearerAccessRequired:
		return "access token"
	case BearerRefreshRequired:
		return "refresh token"
	default:
		return "-"
	}
}

// ProxyRoute maps an internal /api route onto a backend endpoint.
type ProxyRoute struct {
	Method   string
	Route    string
	Upstream string
	Bearer   BearerPolicy
}

var proxyRoutes = []ProxyRoute{
	{http.MethodPost, RouteAPIRegister, backend.PathSignUp, BearerNone},
	{http.MethodPost, RouteAPILogout, backend.PathLogout, BearerOptional},
	{http.MethodGet, RouteAPIRefreshToken, backend.PathRefreshToken, BearerRefreshRequired},
	{http.MethodGet, RouteAPIAuthentication, backend.PathAuthenticate, BearerAccessRequired},
	{http.MethodPost, RouteAPIGetOTP, backend.PathGetOTP, BearerNone},
	{http.MethodPost, RouteAPIVerifyOTP, backend.PathVerifyOTP, BearerNone},
	{http.MethodPost, RouteAPIResetPassword, backend.PathResetPassword, BearerNone},
	{http.MethodPost, RouteAPIGetInfo, backend.PathGetInfo, BearerAccessRequired},
	{http.MethodPost, RouteAPIUpdateInfo, backend.PathUpdateInfo, BearerAccessRequired},
	{http.MethodPost, RouteAPIChangePassword, backend.PathChangePassword, BearerOptional},
}

// ProxyRoutes returns the pass-through route table.
func ProxyRoutes() []ProxyRoute {
	return append([]ProxyRoute(nil), proxyRoutes...)
}

const (
	errNoAccessToken      = "No access token"
	errNoRefreshToken     = "No refresh token"
	errBackendUnavailable = "backend unavailable"
)

// ProxyHandler forwards the request body to the backend and relays the
// upstream status and body unchanged.
func (s *Server) ProxyHandler(route ProxyRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logutil.GetOrDefault(r.Context())

		var body []byte
		if r.Body != nil {
			var err error
			if body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes)); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request body too large or unreadable")
				return
			}
		}

		var bearer *oauth2.Token
		switch route.Bearer {
		case BearerOptional:
			bearer = resolveBearer(r, accessBearer)
		case BearerAccessRequired:
			if bearer = resolveBearer(r, accessBearer); bearer == nil {
				writeJSONError(w, http.StatusUnauthorized, errNoAccessToken, "")
				return
			}
		case BearerRefreshRequired:
			if bearer = resolveBearer(r, refreshBearer); bearer == nil {
				writeJSONError(w, http.StatusBadRequest, errNoRefreshToken, "")
				return
			}
		}

		switch route.Upstream {
		case backend.PathGetInfo:
			if cached, ok := s.profiles.Get(bearer.AccessToken); ok {
				logger.Debug().Msg("profile served from cache")
				relay(w, &backend.Reply{Status: http.StatusOK, ContentType: contentTypeJSON, Body: cached})
				return
			}
		case backend.PathLogout:
			if bearer != nil {
				s.profiles.Invalidate(bearer.AccessToken)
			}
			s.clearSession(w)
		}

		reply, err := s.backend.Forward(r.Context(), backend.Call{
			Method: route.Method,
			Path:   route.Upstream,
			Body:   body,
			Bearer: bearer,
		})
		if err != nil {
			logger.Error().Err(err).Str("upstream", route.Upstream).Msg("proxy request failed")
			writeJSONError(w, http.StatusBadGateway, errBackendUnavailable, "")
			return
		}

		if reply.OK() {
			switch route.Upstream {
			case backend.PathGetInfo:
				if err := s.profiles.Set(bearer.AccessToken, reply.Body); err != nil {
					logger.Warn().Err(err).Msg("failed to cache profile")
				}
			case backend.PathUpdateInfo:
				s.profiles.Invalidate(bearer.AccessToken)
			}
		}
		relay(w, reply)
	}
}

func relay(w http.ResponseWriter, reply *backend.Reply) {
	contentType := reply.ContentType
	if contentType == "" {
		contentType = contentTypeJSON
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(reply.Status)
	_, _ = w.Write(reply.Body)
}

// forwardJSON marshals v and sends it to a backend path. Pages use it for
// the same endpoints the proxy table exposes.
func (s *Server) forwardJSON(ctx context.Context, path string, v any, bearer *oauth2.Token) (*backend.Reply, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return s.backend.Forward(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
		Bearer: bearer,
	})
}
