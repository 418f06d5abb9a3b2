// Package cli provides the interactive chirper command-line client.
//
// It wires configuration, the backend (a remote hub or an in-process one),
// the persisted session and the screen router, then runs a REPL over the
// screens of the app. While signed out only login and signup are offered;
// once signed in the feed opens and stays live until another screen
// replaces it.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and StartOnlineStatusWatcher for details.
package cli
