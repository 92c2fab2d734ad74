// Package dev runs the local development session: an asset and proxy
// server, a live-reload WebSocket channel, filesystem bridges that feed
// out-of-band changes into that channel, and graceful shutdown on
// termination signals.
//
// The session serves compiled bundler output and static public assets,
// forwards unmatched API requests through configured proxy rules, and
// injects a reload client into HTML responses. It is rebuilt from
// configuration on every process start; nothing persists between runs.
package dev
