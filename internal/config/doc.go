// Package config defines the immutable run configuration for deface.
//
// The configuration is constructed exactly once from CLI flags, the
// process environment, and an optional configuration file, then passed
// through the application via dependency injection rather than global
// state. Validation happens once, before any image is touched.
package config
