// Package config defines the format-agnostic configuration model for the
// application and the Loader interface that produces it.
//
// The `config.Model` is the single source of truth for the `reconciler`
// generation settings, the canvas used by `layout`, the collaborator client
// and the optional socket.io publisher. Concrete loaders, such as the HCL
// one, live in separate packages and must return a model that has passed
// Validate.
package config
