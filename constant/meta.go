// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Cardsweep is the canonical application identifier used for filesystem paths and CLI branding.
	Cardsweep = "cardsweep"

	// Version is the current application semantic version string, also written into every output document.
	Version = "1.0.0"

	// UserAgent is the default User-Agent presented by both browser engines.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Build metadata, overridden through -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// Output artifact names inside the output directory.
const (
	DataFile     = "data.json"
	ProgressFile = "process.json"
)
