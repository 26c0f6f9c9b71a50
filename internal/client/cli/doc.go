// Package cli implements the interactive authkeep client: a REPL over the
// session manager with login, signup, logout, and session-inspection
// commands, plus a background watcher that tracks server reachability.
package cli
