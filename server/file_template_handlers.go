package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/jrsteele09/go-chat-portal/internal/logutil"
	"github.com/jrsteele09/go-chat-portal/sessions"
	"github.com/jrsteele09/go-chat-portal/users"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

// Page template names.
const (
	pageIndex          = "index.html"
	pageLogin          = "login.html"
	pageRegister       = "register.html"
	pageForgotPassword = "forgot_password.html"
	pageError          = "error.html"
	pageChangePassword = "change_password.html"
	pageProfile        = "profile.html"
)

var pageNames = []string{
	pageIndex,
	pageLogin,
	pageRegister,
	pageForgotPassword,
	pageError,
	pageChangePassword,
	pageProfile,
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, err
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// PageData is the model every page template renders.
type PageData struct {
	AppName     string
	Title       string
	Session     *sessions.Session
	Error       string
	Notice      string
	Message     string
	CallbackURL string
	Step        string
	Email       string
	Form        map[string]string
	FieldErrors map[string]string
	Profile     *users.Profile
}

func (s *Server) newPageData(r *http.Request, title string) PageData {
	session, _ := GetSession(r)
	return PageData{
		AppName: s.config.GetAppName(),
		Title:   title,
		Session: session,
	}
}

// renderPage writes a page with the given status.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data PageData) {
	tmpl, ok := s.pages[name]
	if !ok {
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Err(err).Str("template", name).Msg("Failed to render template")
	}
}

// fieldErrors flattens validation errors into a field -> message map.
func fieldErrors(err error) map[string]string {
	var verrs users.ValidationErrors
	if !apperrors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field]; !seen {
			out[fe.Field] = fe.Message
		}
	}
	return out
}
