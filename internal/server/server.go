package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aellingwood/folio/internal/security"
)

// Options configures the preview server.
type Options struct {
	Port         int
	Bind         string
	Root         string // directory served at /
	NoLiveReload bool
}

// Server serves Root over HTTP. HTML responses carry a live reload script
// that reloads the page whenever NotifyReload is called.
type Server struct {
	opts   Options
	hub    *Hub
	server *http.Server
}

// New creates a Server.
func New(opts Options) *Server {
	return &Server{opts: opts, hub: NewHub()}
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Bind, fmt.Sprint(s.opts.Port))
}

// Handler returns the HTTP handler for static files and the reload socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(reloadPath, s.hub.HandleWS)
	mux.HandleFunc("/", s.handleRequest)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run()
	defer s.hub.Stop()

	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.Addr(), err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// NotifyReload tells every connected page to reload.
func (s *Server) NotifyReload() {
	s.hub.Broadcast([]byte("reload"))
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	filePath := s.resolveFilePath(r.URL.Path)
	if filePath == "" {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	if isHTML(ext, contentType) && !s.opts.NoLiveReload {
		nonce, err := security.GenerateNonce()
		if err != nil {
			log.Printf("warning: %v", err)
		} else {
			data = InjectLiveReload(data, nonce)
			w.Header().Set("Content-Security-Policy", security.PreviewPolicy(nonce, s.opts.Port).String())
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// resolveFilePath maps a URL path to a file under Root. Directories resolve
// to their index.html and extensionless paths to a matching .html file.
// Paths escaping Root resolve to "".
func (s *Server) resolveFilePath(urlPath string) string {
	cleaned := path.Clean("/" + urlPath)
	full := filepath.Join(s.opts.Root, filepath.FromSlash(cleaned))
	if rel, err := filepath.Rel(s.opts.Root, full); err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	// Dotted directories such as .git and .folio are never served.
	for _, seg := range strings.Split(cleaned, "/") {
		if strings.HasPrefix(seg, ".") {
			return ""
		}
	}

	if info, err := os.Stat(full); err == nil {
		if !info.IsDir() {
			return full
		}
		index := filepath.Join(full, "index.html")
		if _, err := os.Stat(index); err == nil {
			return index
		}
		return ""
	}
	if _, err := os.Stat(full + ".html"); err == nil {
		return full + ".html"
	}
	return ""
}

func isHTML(ext, contentType string) bool {
	return ext == ".html" || ext == ".htm" || strings.HasPrefix(contentType, "text/html")
}
