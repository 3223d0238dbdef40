// Package pages renders the HTML documents the server generates itself:
// directory listings and the not-found page. Everything else served is a
// plain file and never passes through here.
package pages

import (
	"html/template"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// Entry is one row of a directory listing.
type Entry struct {
	// Name is the display name, with a trailing slash for directories.
	Name string

	// URL is the escaped href for the entry.
	URL template.URL

	// IsDir reports whether the entry is a directory.
	IsDir bool

	// Size is the humanized file size. Empty for directories.
	Size string

	// Modified is the humanized modification age.
	Modified string
}

// ListingData is the model for the directory listing page.
type ListingData struct {
	// Path is the URL path being listed.
	Path string

	// Parent is the href of the parent directory, empty at the root.
	Parent template.URL

	// Entries are the directory contents, directories first.
	Entries []Entry
}

// BuildListing prepares a listing model for the directory at urlPath.
// urlPath must be the slash-terminated request path.
func BuildListing(urlPath string, entries []os.DirEntry) *ListingData {
	data := &ListingData{Path: urlPath}
	if urlPath != "/" {
		data.Parent = template.URL("../")
	}

	for _, ent := range entries {
		e := Entry{
			Name:  ent.Name(),
			URL:   template.URL(url.PathEscape(ent.Name())),
			IsDir: ent.IsDir(),
		}
		if e.IsDir {
			e.Name += "/"
			e.URL += "/"
		}
		if info, err := ent.Info(); err == nil {
			if !e.IsDir {
				e.Size = humanize.Bytes(uint64(info.Size()))
			}
			e.Modified = humanize.Time(info.ModTime())
		}
		data.Entries = append(data.Entries, e)
	}

	sort.SliceStable(data.Entries, func(i, j int) bool {
		a, b := data.Entries[i], data.Entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	return data
}

// RenderListing writes the directory listing page.
func RenderListing(w io.Writer, data *ListingData) error {
	return listingTmpl.Execute(w, data)
}

// NotFoundData is the model for the not-found page.
type NotFoundData struct {
	// Path is the URL path that was requested.
	Path string
}

// RenderNotFound writes the not-found page.
func RenderNotFound(w io.Writer, urlPath string) error {
	return notFoundTmpl.Execute(w, &NotFoundData{Path: urlPath})
}

var listingTmpl = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Index of {{.Path}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 800px; margin: 0 auto; padding: 2rem; color: #1f2937; }
h1 { font-size: 1.25rem; border-bottom: 1px solid #e5e7eb; padding-bottom: 0.5rem; }
table { width: 100%; border-collapse: collapse; font-family: ui-monospace, monospace; font-size: 0.875rem; }
td { padding: 0.25rem 0.75rem 0.25rem 0; vertical-align: top; }
td.size, td.modified { color: #6b7280; white-space: nowrap; }
a { color: #2563eb; text-decoration: none; }
a:hover { text-decoration: underline; }
</style>
</head>
<body>
<h1>Index of {{.Path}}</h1>
<table>
{{if .Parent}}<tr><td><a href="{{.Parent}}">../</a></td><td class="size"></td><td class="modified"></td></tr>
{{end}}{{range .Entries}}<tr><td><a href="{{.URL}}">{{.Name}}</a></td><td class="size">{{.Size}}</td><td class="modified">{{.Modified}}</td></tr>
{{end}}</table>
</body>
</html>
`))

var notFoundTmpl = template.Must(template.New("notfound").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>404 Not Found</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 800px; margin: 0 auto; padding: 2rem; color: #1f2937; }
h1 { font-size: 1.25rem; }
code { font-family: ui-monospace, monospace; background: #f3f4f6; padding: 0.125rem 0.375rem; border-radius: 4px; }
a { color: #2563eb; }
</style>
</head>
<body>
<h1>404 Not Found</h1>
<p><code>{{.Path}}</code> does not exist under the served directory.</p>
<p><a href="/">Back to the index</a></p>
</body>
</html>
`))
