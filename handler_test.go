package easel

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/easel-dev/easel/internal/livereload"
)

// newTestHandler binds a server on an ephemeral port over root and returns
// its request handler for in-process testing.
func newTestHandler(t *testing.T, root string) (*DevServer, http.Handler) {
	t.Helper()

	srv := New(Config{Port: 0, Root: root})
	if err := srv.Bind(); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	t.Cleanup(srv.Stop)

	return srv, srv.buildHandler()
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestServeFile_ExactBody(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>hi</h1>"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, h := newTestHandler(t, root)

	rr := get(h, "/index.html")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "<h1>hi</h1>" {
		t.Errorf("body = %q, want %q", got, "<h1>hi</h1>")
	}
}

func TestServeFile_ScriptContentTypes(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"app.ts":  "text/javascript",
		"main.js": "application/javascript",
		"mod.mjs": "application/javascript",
		"App.TS":  "text/javascript",
	}
	for name := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte("export {}"), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", name, err)
		}
	}

	_, h := newTestHandler(t, root)

	for name, want := range files {
		rr := get(h, "/"+name)
		if rr.Code != http.StatusOK {
			t.Fatalf("GET /%s status = %d, want %d", name, rr.Code, http.StatusOK)
		}
		if got := rr.Header().Get("Content-Type"); got != want {
			t.Errorf("GET /%s Content-Type = %q, want %q", name, got, want)
		}
	}
}

func TestServeFile_NotFound(t *testing.T) {
	_, h := newTestHandler(t, t.TempDir())

	rr := get(h, "/does-not-exist.txt")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestServeFile_RepeatedGetsAreIdentical(t *testing.T) {
	root := t.TempDir()
	body := []byte("const x = 42;\nexport { x };\n")
	if err := os.WriteFile(filepath.Join(root, "app.js"), body, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, h := newTestHandler(t, root)

	first := get(h, "/app.js").Body.Bytes()
	second := get(h, "/app.js").Body.Bytes()
	if string(first) != string(second) {
		t.Error("repeated GETs returned different bodies")
	}
	if string(first) != string(body) {
		t.Errorf("body = %q, want %q", first, body)
	}
}

func TestServeFile_BlocksDirectoryTraversal(t *testing.T) {
	tmpDir := t.TempDir()
	publicDir := filepath.Join(tmpDir, "public")
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if err := os.WriteFile(filepath.Join(publicDir, "ok.txt"), []byte("ok"), 0o644); err != nil {
		t.Fatalf("WriteFile ok.txt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "secret.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatalf("WriteFile secret.txt: %v", err)
	}

	_, h := newTestHandler(t, publicDir)

	rr := get(h, "/ok.txt")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /ok.txt status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "ok" {
		t.Fatalf("GET /ok.txt body = %q, want %q", got, "ok")
	}

	cases := []string{
		"/../secret.txt",
		"/%2e%2e/secret.txt",
		"/..//secret.txt",
		"/foo/../../secret.txt",
	}
	for _, p := range cases {
		rr = get(h, "http://example.com"+p)
		if rr.Code == http.StatusOK && strings.Contains(rr.Body.String(), "secret") {
			t.Fatalf("GET %s unexpectedly served secret content", p)
		}
		if rr.Code != http.StatusNotFound {
			t.Fatalf("GET %s status = %d, want %d", p, rr.Code, http.StatusNotFound)
		}
	}
}

func TestServeFile_BlocksAbsolutePathEscape(t *testing.T) {
	tmpDir := t.TempDir()
	publicDir := filepath.Join(tmpDir, "public")
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	absSecretPath := filepath.Join(tmpDir, "abs-secret.txt")
	if err := os.WriteFile(absSecretPath, []byte("abs-secret"), 0o644); err != nil {
		t.Fatalf("WriteFile abs-secret.txt: %v", err)
	}

	// This is primarily exploitable on Unix-like systems where absolute paths
	// start with "/". The core traversal protection is covered in the other test.
	if runtime.GOOS == "windows" {
		t.Skip("absolute-path escape is OS-specific on Windows")
	}

	_, h := newTestHandler(t, publicDir)

	// A double slash leaves an absolute path after prefix stripping.
	rr := get(h, "http://example.com/"+filepath.ToSlash(absSecretPath))
	if rr.Code == http.StatusOK && strings.Contains(rr.Body.String(), "abs-secret") {
		t.Fatalf("unexpectedly served absolute-path content from %q", absSecretPath)
	}
	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET //<abs> status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestServeFile_BlocksSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on Windows")
	}

	tmpDir := t.TempDir()
	publicDir := filepath.Join(tmpDir, "public")
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	secret := filepath.Join(tmpDir, "secret.txt")
	if err := os.WriteFile(secret, []byte("secret"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Symlink(secret, filepath.Join(publicDir, "link.txt")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	_, h := newTestHandler(t, publicDir)

	rr := get(h, "/link.txt")
	if rr.Code == http.StatusOK && strings.Contains(rr.Body.String(), "secret") {
		t.Fatal("symlink escaping the root was served")
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("GET /link.txt status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestServeFile_AllowsSymlinkInsideRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on Windows")
	}

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "real.txt"), []byte("real"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "alias.txt")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	_, h := newTestHandler(t, root)

	rr := get(h, "/alias.txt")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "real" {
		t.Errorf("body = %q, want %q", got, "real")
	}
}

func TestServeDir_RedirectsToSlash(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	_, h := newTestHandler(t, root)

	rr := get(h, "/sub")
	if rr.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusMovedPermanently)
	}
	if got := rr.Header().Get("Location"); got != "/sub/" {
		t.Errorf("Location = %q, want %q", got, "/sub/")
	}
}

func TestServeDir_ServesIndexDocument(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>home</h1>"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, h := newTestHandler(t, root)

	rr := get(h, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "<h1>home</h1>" {
		t.Errorf("body = %q, want %q", got, "<h1>home</h1>")
	}
}

func TestServeDir_RendersListing(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "app.ts"), []byte("export {}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "assets"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	_, h := newTestHandler(t, root)

	rr := get(h, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html prefix", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "app.ts") {
		t.Error("listing missing app.ts")
	}
	if !strings.Contains(body, "assets/") {
		t.Error("listing missing assets/")
	}
}

func TestServeRequest_MethodNotAllowed(t *testing.T) {
	_, h := newTestHandler(t, t.TempDir())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/index.html", nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want %d", method, rr.Code, http.StatusMethodNotAllowed)
		}
	}
}

func TestServeRequest_Head(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "app.ts"), []byte("export {}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, h := newTestHandler(t, root)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodHead, "/app.ts", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Content-Type"); got != "text/javascript" {
		t.Errorf("Content-Type = %q, want %q", got, "text/javascript")
	}
	if body, _ := io.ReadAll(rr.Body); len(body) != 0 {
		t.Errorf("HEAD body = %d bytes, want 0", len(body))
	}
}

func TestServeFile_InjectsReloadScriptWhenLive(t *testing.T) {
	root := t.TempDir()
	doc := "<html><body><h1>hi</h1></body></html>"
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	srv, _ := newTestHandler(t, root)
	srv.broker = livereload.NewBroker()
	t.Cleanup(srv.broker.Close)
	h := srv.buildHandler()

	rr := get(h, "/index.html")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "/_easel/reload") {
		t.Error("reload script not injected into HTML")
	}
	if !strings.Contains(body, "<h1>hi</h1>") {
		t.Error("original document content lost")
	}

	// Non-HTML files stay byte-identical even while live reload is on.
	if err := os.WriteFile(filepath.Join(root, "app.js"), []byte("let a = 1;"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rr = get(h, "/app.js")
	if got := rr.Body.String(); got != "let a = 1;" {
		t.Errorf("body = %q, want %q", got, "let a = 1;")
	}
}

func TestServeFile_NoInjectionWhenLiveReloadOff(t *testing.T) {
	root := t.TempDir()
	doc := "<html><body><h1>hi</h1></body></html>"
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, h := newTestHandler(t, root)

	rr := get(h, "/index.html")
	if got := rr.Body.String(); got != doc {
		t.Errorf("body = %q, want byte-identical %q", got, doc)
	}
}

func TestSanitizeRequestPath(t *testing.T) {
	tests := []struct {
		urlPath string
		want    string
		ok      bool
	}{
		{"/", "", true},
		{"/index.html", "index.html", true},
		{"/sub/app.ts", "sub/app.ts", true},
		{"/sub/", "sub", true},
		{"/../etc/passwd", "", false},
		{"/..", "", false},
		{"/./index.html", "", false},
		{"/a/../b", "", false},
		{"//etc/passwd", "", false},
		{"/a\\b", "", false},
		{"/a\x00b", "", false},
	}

	for _, tt := range tests {
		got, ok := sanitizeRequestPath(tt.urlPath)
		if ok != tt.ok || got != tt.want {
			t.Errorf("sanitizeRequestPath(%q) = (%q, %v), want (%q, %v)",
				tt.urlPath, got, ok, tt.want, tt.ok)
		}
	}
}
