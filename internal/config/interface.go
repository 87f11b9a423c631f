package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths, applies defaults for
	// anything left out, validates the result and returns it. Paths that do
	// not exist are skipped; loading nothing yields Default().
	Load(ctx context.Context, paths ...string) (*Model, error)
}
