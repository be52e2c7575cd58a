// Package editor implements the File-Edit worker.
//
// Every path is resolved against the sandbox root, with leading separators
// meaning root-relative. Resolution is checked by permission.PathGuard on
// each call and file I/O goes through an afero.BasePathFs rooted at the
// same directory, so an escape has to get past both.
//
// All operations except List require an allow-listed file extension.
package editor
