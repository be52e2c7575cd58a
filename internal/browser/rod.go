package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodLauncher returns a Launcher that starts Chromium with go-rod. An empty
// bin lets go-rod find or download a browser.
func RodLauncher(headless bool, bin string) Launcher {
	return func(ctx context.Context) (Engine, error) {
		l := launcher.New().Headless(headless).Leakless(true)
		if bin != "" {
			l = l.Bin(bin)
		}
		controlURL, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}

		b := rod.New().ControlURL(controlURL)
		if err := b.Connect(); err != nil {
			l.Kill()
			return nil, fmt.Errorf("connect to chrome: %w", err)
		}
		return &rodEngine{browser: b, launcher: l}, nil
	}
}

type rodEngine struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func (e *rodEngine) Open(ctx context.Context, url string, timeout time.Duration) (Page, error) {
	page, err := e.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	p := page.Context(ctx).Timeout(timeout)
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		p.CancelTimeout()
		_ = page.Close()
		return nil, err
	}
	wait()
	err = p.GetContext().Err()
	p.CancelTimeout()
	if err != nil {
		_ = page.Close()
		return nil, err
	}
	return &rodPage{page: page}, nil
}

func (e *rodEngine) Close() error {
	err := e.browser.Close()
	e.launcher.Kill()
	return err
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *rodPage) Title() (string, error) {
	info, err := p.page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (p *rodPage) HTML() (string, error) {
	return p.page.HTML()
}

func (p *rodPage) Screenshot() ([]byte, error) {
	return p.page.Screenshot(false, nil)
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
