// Package config loads and validates autofe.json.
//
// Dev-server settings appear in up to two places in the file: embedded in
// the bundler block (bundler.devServer) and at the project level
// (devServer). Session() merges them with built-in defaults in priority
// order defaults < bundler-embedded < project-level; the merged result is
// immutable once the session starts.
//
// Unknown keys are rejected at load time rather than silently accepted.
package config
