package easel

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/easel-dev/easel/internal/livereload"
	"github.com/easel-dev/easel/internal/pages"
)

// =============================================================================
// File Serving
// =============================================================================

// indexNames are the documents served in place of a directory listing.
var indexNames = []string{"index.html", "index.htm"}

// buildHandler assembles the request router: the live-reload endpoint when
// enabled, and file serving behind the serializing middleware so only one
// request is in flight at a time. The reload endpoint sits outside the
// serialized group because it holds connections open.
func (s *DevServer) buildHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequest)

	if s.broker != nil {
		r.Handle(livereload.EndpointPath, s.broker)
	}

	r.Group(func(r chi.Router) {
		r.Use(serialize)
		r.Handle("/*", http.HandlerFunc(s.serveRequest))
	})

	return r
}

// serialize admits one request to the handler at a time, in arrival order.
func serialize(next http.Handler) http.Handler {
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// logRequest emits a debug line per request.
func (s *DevServer) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// serveRequest resolves the request path under the root and serves a file,
// an index document, a directory listing, or a not-found page.
func (s *DevServer) serveRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, ok := sanitizeRequestPath(r.URL.Path)
	if !ok {
		s.notFound(w, r)
		return
	}

	full, ok := s.resolveUnderRoot(rel)
	if !ok {
		s.notFound(w, r)
		return
	}

	info, err := os.Stat(full)
	if err != nil {
		s.notFound(w, r)
		return
	}

	if info.IsDir() {
		s.serveDir(w, r, full)
		return
	}

	s.serveFile(w, r, full)
}

// sanitizeRequestPath returns a root-relative slash path for a request path.
// It rejects traversal and absolute-path tricks so serving cannot escape the
// root directory. An empty relative path with ok=true means the root itself.
func sanitizeRequestPath(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(urlPath, "/")
	if rel == "" {
		return "", true
	}

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}

	// Reject platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return "", false
	}

	// After prefix stripping, a leading "/" indicates an absolute-path
	// attempt (e.g. "//etc/passwd" => "/etc/passwd").
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	// Reject dot-segments before cleaning to avoid "cleaning away" traversal
	// attempts and changing the meaning of the request path.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == "" || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}

	// Defense-in-depth: reject OS-absolute/volume paths after slash conversion.
	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}

	return clean, true
}

// resolveUnderRoot maps a sanitized relative path to an absolute filesystem
// path and confirms that, after resolving symlinks, it is still inside the
// root. Anything that resolves outside — including links pointing out of the
// tree — is treated as absent.
func (s *DevServer) resolveUnderRoot(rel string) (string, bool) {
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		return "", false
	}

	if resolved != s.root && !strings.HasPrefix(resolved, s.root+string(os.PathSeparator)) {
		return "", false
	}

	return resolved, true
}

// serveDir handles a directory: redirect to the slash form, serve the index
// document if one exists, otherwise render a listing.
func (s *DevServer) serveDir(w http.ResponseWriter, r *http.Request, dir string) {
	if !strings.HasSuffix(r.URL.Path, "/") {
		http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
		return
	}

	for _, name := range indexNames {
		index := filepath.Join(dir, name)
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			s.serveFile(w, r, index)
			return
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.notFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pages.RenderListing(w, pages.BuildListing(r.URL.Path, entries))
}

// serveFile streams a regular file with the content type from the table.
// While live reload is enabled, HTML documents get the client script
// injected; everything else is served byte for byte.
func (s *DevServer) serveFile(w http.ResponseWriter, r *http.Request, full string) {
	contentType := s.types.LookupPath(full)

	if s.broker != nil && isHTMLPath(full) {
		body, err := os.ReadFile(full)
		if err != nil {
			s.notFound(w, r)
			return
		}
		body = livereload.InjectScript(body)
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Method == http.MethodHead {
			return
		}
		w.Write(body)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		s.notFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.notFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// notFound renders the 404 page.
func (s *DevServer) notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if r.Method != http.MethodHead {
		pages.RenderNotFound(w, r.URL.Path)
	}
}

// isHTMLPath reports whether a file should be treated as an HTML document.
func isHTMLPath(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".html", ".htm":
		return true
	}
	return false
}
