package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Startup Errors (E101-E119)
	// ============================================

	"E101": {
		Category:   CategoryStartup,
		Message:    "Could not bind the listening port",
		Detail:     "The TCP port could not be bound. Either another process is already listening on it, or binding it requires privileges this process does not have.",
		Suggestion: "Pick a different port with --port, or stop the process holding this one.",
	},
	"E102": {
		Category:   CategoryStartup,
		Message:    "Served directory is not usable",
		Detail:     "The directory to serve does not exist or is not a directory.",
		Suggestion: "Pass an existing directory: easel path/to/dir",
	},
	"E103": {
		Category:   CategoryStartup,
		Message:    "Could not resolve the served directory",
		Detail:     "The path of the directory to serve could not be resolved to an absolute path.",
		Suggestion: "Check that the path exists and that its parent directories are readable.",
	},

	// ============================================
	// CLI Errors (E120-E139)
	// ============================================

	"E120": {
		Category:   CategoryCLI,
		Message:    "Invalid port",
		Detail:     "Ports are numbers between 1 and 65535.",
		Suggestion: "Run with a valid port, e.g. easel --port 8000",
	},
}
