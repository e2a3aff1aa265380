package server

import (
	"embed"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/go-chat-portal/internal/logutil"
)

//go:embed static/*
var staticFiles embed.FS

func StaticFilesFS() fs.FS {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("Failed to create sub filesystem: " + err.Error())
	}
	return subFS
}

func StreamFile(w http.ResponseWriter, _ *http.Request, fileName string) error {
	data, err := fs.ReadFile(StaticFilesFS(), fileName)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	ctype := mime.TypeByExtension(ext)
	if ctype == "" {
		// Fallback for unknown extensions
		ctype = http.DetectContentType(data)
	}
	// Ensure UTF-8 for text types when not present
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
		ctype += "; charset=utf-8"
	}
	w.Header().Set("Content-Type", ctype)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s content: %w", fileName, err)
	}
	return nil
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := r.PathValue("file")
		if filePath == "" {
			filePath = strings.TrimPrefix(r.URL.Path, "/")
		}
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			logger := logutil.GetOrDefault(r.Context())
			logger.Debug().Err(err).Str("file", filePath).Msg("static file not found")
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
		}
	}
}

// faviconHandler serves the logo for /favicon.ico.
func (s *Server) faviconHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := StreamFile(w, r, "logo.svg"); err != nil {
			http.NotFound(w, r)
		}
	}
}
