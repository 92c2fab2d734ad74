// Package errors provides structured, coded errors for the autofe CLI.
//
// Every error carries a stable code (e.g., "E200"), a category, and an
// optional detail paragraph and fix suggestion. Codes are registered in
// registry.go; New(code) instantiates from the registry, Newf builds an
// ad-hoc error without a code.
//
// Startup-phase errors (config, network, proxy) are fatal and abort the
// process with a formatted message. Steady-state errors (a failed rebuild,
// a watch permission problem) are reported and the session keeps serving
// the last successful build.
package errors
