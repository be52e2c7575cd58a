// Package terminal implements the Command-Exec worker: shell commands run
// with their working directory fixed to a sandbox root, behind a substring
// denylist and a hard timeout.
//
// The denylist is a best-effort filter. It does not sandbox the process
// beyond its working directory.
package terminal
