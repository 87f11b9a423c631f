// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle: load the
// configuration, open a session, serve the HTTP surface and follow the
// inputs directory until the context ends. It is decoupled from any specific
// entrypoint like a CLI.
package app
