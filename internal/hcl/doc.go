// Package hcl provides the HCL implementation of config.Loader.
//
// A configuration is one or more .hcl files (or directories holding them)
// with up to four top-level blocks: generation, canvas, collaborator and
// publisher. Every attribute is optional and falls back to config.Default.
// Later files override earlier ones attribute by attribute.
//
// Expressions are evaluated with the process environment available as the
// object `env` and a small set of functions (lookup, coalesce, lower, upper,
// trimspace), so secrets can stay out of the file:
//
//	collaborator {
//	  api_key = lookup(env, "OPENAI_API_KEY", "")
//	}
package hcl
