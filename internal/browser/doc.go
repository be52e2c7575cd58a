// Package browser implements the Browser worker on top of a headless
// Chromium driven by go-rod.
//
// The worker owns at most one engine and one page. Navigating closes the
// previous page first. Every navigation target is checked against the
// domain blocklist before the engine is touched.
package browser
