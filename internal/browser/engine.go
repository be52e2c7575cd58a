package browser

import (
	"context"
	"time"
)

// Engine opens pages in a browser process.
type Engine interface {
	// Open creates a page, navigates it to url and waits until the
	// document's DOMContentLoaded fires or timeout elapses.
	Open(ctx context.Context, url string, timeout time.Duration) (Page, error)
	Close() error
}

// Page is a single open browser tab.
type Page interface {
	URL() string
	Title() (string, error)
	HTML() (string, error)
	Screenshot() ([]byte, error)
	Close() error
}

// Launcher starts an Engine.
type Launcher func(ctx context.Context) (Engine, error)
