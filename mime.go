package easel

import (
	"mime"
	"path/filepath"
	"strings"
)

// =============================================================================
// Content Types
// =============================================================================

// contentTypeOverrides take precedence over the platform registry no matter
// what it contains. TypeScript sources are served as executable JavaScript so
// browser prototypes can load .ts files directly, and the script types are
// pinned so serving does not depend on the host's registry state.
var contentTypeOverrides = map[string]string{
	".ts":  "text/javascript",
	".js":  "application/javascript",
	".mjs": "application/javascript",
}

// fallbackContentType is used when neither the overrides nor the platform
// registry know the extension.
const fallbackContentType = "application/octet-stream"

// ContentTypeTable maps file extensions to MIME types. A server builds one
// table at construction and only reads it afterwards; the process-global
// registry in package mime is never modified.
type ContentTypeTable struct {
	overrides map[string]string
}

// NewContentTypeTable returns the table the server resolves content types
// with: the platform registry with the unconditional overrides on top.
func NewContentTypeTable() *ContentTypeTable {
	overrides := make(map[string]string, len(contentTypeOverrides))
	for ext, typ := range contentTypeOverrides {
		overrides[ext] = typ
	}
	return &ContentTypeTable{overrides: overrides}
}

// Lookup returns the MIME type for an extension (with leading dot).
// Extensions match case-insensitively.
func (t *ContentTypeTable) Lookup(ext string) string {
	ext = strings.ToLower(ext)
	if typ, ok := t.overrides[ext]; ok {
		return typ
	}
	if typ := mime.TypeByExtension(ext); typ != "" {
		return typ
	}
	return fallbackContentType
}

// LookupPath returns the MIME type for a file path.
func (t *ContentTypeTable) LookupPath(p string) string {
	return t.Lookup(filepath.Ext(p))
}
