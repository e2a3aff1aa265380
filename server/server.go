package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-chat-portal/auth"
	"github.com/jrsteele09/go-chat-portal/backend"
	"github.com/jrsteele09/go-chat-portal/internal/config"
	"github.com/jrsteele09/go-chat-portal/internal/profilecache"
	"github.com/jrsteele09/go-chat-portal/routeguard"
	"github.com/jrsteele09/go-chat-portal/sessions"
	"github.com/jrsteele09/go-chat-portal/token"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

const sessionIssuer = "chat-portal"

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	api      *httprouter.Router
	routes   []string
	config   config.Config
	backend  *backend.Client
	auth     *auth.Service
	guard    *routeguard.Guard
	profiles *profilecache.Cache
	limiter  *ipLimiter
	cookie   sessions.CookieOptions
	pages    map[string]*template.Template
	nowFunc  func() time.Time
}

// Option customises a Server at construction.
type Option func(*Server)

// WithBackendClient replaces the backend client built from config.
func WithBackendClient(c *backend.Client) Option {
	return func(s *Server) {
		s.backend = c
	}
}

// WithNowFunc sets the clock used for session timestamps.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

// New wires every component from cfg and registers the routes. Close
// releases the profile cache.
func New(cfg config.Config, options ...Option) (*Server, error) {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		api:     httprouter.New(),
		config:  cfg,
		nowFunc: time.Now,
		cookie: sessions.CookieOptions{
			Name:   cfg.GetSessionCookieName(),
			MaxAge: cfg.GetSessionMaxAge(),
			Secure: cfg.IsProduction(),
		},
	}
	for _, opt := range options {
		opt(s)
	}

	if s.backend == nil {
		s.backend = backend.NewClient(cfg.GetAPIURL(), backend.WithTimeout(cfg.GetExchangeTimeout()))
	}

	signer, err := token.NewHMACSigner(cfg.GetAuthSecret())
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create session signer: %w", err)
	}
	codec := token.NewCodec(signer, cfg.GetSessionMaxAge(), token.WithIssuer(sessionIssuer), token.WithNowFunc(s.nowFunc))
	s.auth = auth.NewService(s.backend, codec, auth.WithUpdateAge(cfg.GetSessionUpdateAge()))

	if s.guard, err = routeguard.New(cfg); err != nil {
		return nil, fmt.Errorf("[Server New] invalid route configuration: %w", err)
	}

	if s.profiles, err = profilecache.New(cfg.GetProfileCacheTTL()); err != nil {
		return nil, fmt.Errorf("[Server New] failed to create profile cache: %w", err)
	}

	s.limiter = newIPLimiter(cfg.GetLoginRateLimit(), time.Minute)

	if s.pages, err = parsePages(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close releases background resources.
func (s *Server) Close() error {
	return s.profiles.Close()
}

// Guard exposes the route guard, mainly for describing the rule table.
func (s *Server) Guard() *routeguard.Guard {
	return s.guard
}

// Routes lists every registered pattern in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// RegisterAPIRoute adds a route to the /api router.
func (s *Server) RegisterAPIRoute(method, path string, handler http.HandlerFunc) {
	s.routes = append(s.routes, method+" "+path)
	s.api.HandlerFunc(method, path, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}
