package browser

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/internal/permission"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

const (
	DefaultNavigationTimeout = 30 * time.Second
	SummaryLength            = 1000
	ExtractDisplayLength     = 2000
	SearchURL                = "https://www.google.com/search?q="
)

const description = "Browses websites, takes screenshots, extracts page " +
	"content and searches the web."

const assistantPrompt = `You are a web browsing assistant. You can open URLs,
take screenshots, extract page content and search the web. When the user's
request needs a specific page, include its full URL in your reply.`

// ErrNoActivePage is returned when an operation needs an open page.
var ErrNoActivePage = errors.New("no active page")

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s)>\]"']+`)
	searchPattern = regexp.MustCompile(`(?i)\bsearch(?:\s+the\s+web)?(?:\s+for)?\s+(.+)`)
)

// Worker is the Browser worker.
type Worker struct {
	agent.Info

	mu     sync.Mutex
	launch Launcher
	engine Engine
	page   Page

	guard      *permission.DomainGuard
	shotDir    string
	navTimeout time.Duration
	now        func() time.Time
	completer  provider.Completer
	bus        *event.Bus
	log        zerolog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithNavigationTimeout overrides the DOMContentLoaded wait.
func WithNavigationTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.navTimeout = d
		}
	}
}

// WithGuard replaces the default domain blocklist.
func WithGuard(g *permission.DomainGuard) Option {
	return func(w *Worker) { w.guard = g }
}

// WithCompleter sets the completion service used for natural-language input.
func WithCompleter(c provider.Completer) Option {
	return func(w *Worker) { w.completer = c }
}

// WithBus publishes sandbox rejections on bus.
func WithBus(bus *event.Bus) Option {
	return func(w *Worker) { w.bus = bus }
}

// WithClock overrides the clock used for screenshot names.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// New creates a Browser worker. Screenshots are written to shotDir.
func New(launch Launcher, shotDir string, opts ...Option) *Worker {
	w := &Worker{
		Info:       agent.NewInfo(agent.NameWeb, description, agent.KindBrowser),
		launch:     launch,
		guard:      permission.NewDomainGuard(),
		shotDir:    shotDir,
		navTimeout: DefaultNavigationTimeout,
		now:        time.Now,
		log:        logging.Component("browser"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Initialize launches the browser. A failed launch is retried on the next
// call that needs the engine.
func (w *Worker) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(w.shotDir, 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ensureEngine(ctx)
}

// Shutdown closes the page and the browser.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if w.page != nil {
		errs = append(errs, w.page.Close())
		w.page = nil
	}
	if w.engine != nil {
		errs = append(errs, w.engine.Close())
		w.engine = nil
	}
	return errors.Join(errs...)
}

func (w *Worker) ensureEngine(ctx context.Context) error {
	if w.engine != nil {
		return nil
	}
	if w.launch == nil {
		return errors.New("no browser launcher configured")
	}
	engine, err := w.launch(ctx)
	if err != nil {
		return err
	}
	w.engine = engine
	w.log.Info().Msg("browser launched")
	return nil
}

// Navigate opens rawURL in a fresh page, replacing any open page.
func (w *Worker) Navigate(ctx context.Context, rawURL string) agent.Result {
	u, err := w.guard.Check(rawURL)
	if err != nil {
		agent.NotifyRejected(w.bus, w.Name(), err)
		return agent.FromError(err)
	}
	target := u.String()

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureEngine(ctx); err != nil {
		return agent.Failf(agent.CodeBrowserUnavailable, "Browser not initialized: %v", err)
	}
	if w.page != nil {
		if err := w.page.Close(); err != nil {
			w.log.Debug().Err(err).Msg("close previous page")
		}
		w.page = nil
	}

	start := time.Now()
	page, err := w.engine.Open(ctx, target, w.navTimeout)
	if err != nil {
		code := agent.CodeExecutionFailed
		if errors.Is(err, context.DeadlineExceeded) {
			code = agent.CodeTimeout
		}
		return agent.Fail(code, fmt.Sprintf("Error navigating to URL: %v", err), map[string]any{"url": target})
	}
	w.page = page
	w.log.Debug().Str("url", target).Dur("elapsed", time.Since(start)).Msg("navigated")

	title, _ := page.Title()
	data := map[string]any{"url": target, "title": title}

	shotPath, err := w.saveScreenshot(page, target)
	if err != nil {
		w.log.Warn().Err(err).Msg("screenshot after navigation failed")
	} else {
		data["screenshotPath"] = shotPath
	}

	summary := ""
	if html, err := page.HTML(); err == nil {
		if ex, err := Extract(html); err == nil {
			summary = Truncate(ex.Text, SummaryLength)
		}
	}
	data["contentSummary"] = summary

	var sb strings.Builder
	fmt.Fprintf(&sb, "Navigated to: %s\nTitle: %s\n", target, title)
	if shotPath != "" {
		fmt.Fprintf(&sb, "\nScreenshot saved: %s\n", shotPath)
	}
	if summary != "" {
		fmt.Fprintf(&sb, "\nContent summary:\n%s", summary)
	}
	return agent.OK(strings.TrimRight(sb.String(), "\n"), data)
}

// Screenshot captures the active page.
func (w *Worker) Screenshot(ctx context.Context) agent.Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	page, err := w.activePage()
	if err != nil {
		return noActivePage()
	}
	p, err := w.saveScreenshot(page, page.URL())
	if err != nil {
		return agent.Failf(agent.CodeExecutionFailed, "Error taking screenshot: %v", err)
	}
	return agent.OK("Screenshot saved: "+p, map[string]any{"path": p, "url": page.URL()})
}

// Extract returns the readable content of the active page.
func (w *Worker) Extract(ctx context.Context) agent.Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	page, err := w.activePage()
	if err != nil {
		return noActivePage()
	}
	html, err := page.HTML()
	if err != nil {
		return agent.Failf(agent.CodeExecutionFailed, "Error extracting content: %v", err)
	}
	ex, err := Extract(html)
	if err != nil {
		return agent.Failf(agent.CodeExecutionFailed, "Error extracting content: %v", err)
	}

	pageURL := page.URL()
	title, _ := page.Title()
	body := ex.Markdown
	if body == "" {
		body = ex.Text
	}
	return agent.OK(
		fmt.Sprintf("Extracted content from %s:\n\n%s", pageURL, Truncate(body, ExtractDisplayLength)),
		map[string]any{
			"url":      pageURL,
			"title":    title,
			"selector": ex.Selector,
			"text":     ex.Text,
			"markdown": ex.Markdown,
		},
	)
}

// Search navigates to a web search for query.
func (w *Worker) Search(ctx context.Context, query string) agent.Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return agent.Fail(agent.CodeInvalidRequest, "Search query is empty", nil)
	}
	res := w.Navigate(ctx, SearchURL+url.QueryEscape(query))
	if res.Data != nil {
		res.Data["query"] = query
	}
	return res
}

// Handle maps free-form requests to browser operations: a URL navigates,
// "screenshot" captures, "extract" or "scrape" extracts and "search for"
// searches. Anything else goes to the completion service, and a URL in its
// reply is opened.
func (w *Worker) Handle(ctx context.Context, input string, history []types.Message) agent.Result {
	lower := strings.ToLower(input)

	if m := urlPattern.FindString(input); m != "" {
		return w.Navigate(ctx, m)
	}
	switch {
	case strings.Contains(lower, "screenshot"):
		return w.Screenshot(ctx)
	case strings.Contains(lower, "extract"), strings.Contains(lower, "scrape"):
		return w.Extract(ctx)
	}
	if m := searchPattern.FindStringSubmatch(input); m != nil {
		return w.Search(ctx, m[1])
	}

	if w.completer == nil {
		return agent.Fail(agent.CodeUpstream, "No completion service is configured. Send a URL to browse it.", nil)
	}
	conv := append(append([]types.Message(nil), history...), types.NewMessage(types.RoleUser, input))
	reply, err := w.completer.Complete(ctx, assistantPrompt, conv)
	if err != nil {
		return agent.Fail(agent.CodeUpstream, "I encountered an error processing your request: "+err.Error(),
			map[string]any{"upstream": err.Error()})
	}
	if m := urlPattern.FindString(reply); m != "" {
		res := w.Navigate(ctx, m)
		res.Content = reply + "\n\n" + res.Content
		return res
	}
	return agent.OK(reply, nil)
}

func (w *Worker) activePage() (Page, error) {
	if w.page == nil {
		return nil, ErrNoActivePage
	}
	return w.page, nil
}

func noActivePage() agent.Result {
	return agent.Fail(agent.CodeNoActivePage, "No active page. Navigate to a URL first.", nil)
}

func (w *Worker) saveScreenshot(page Page, pageURL string) (string, error) {
	img, err := page.Screenshot()
	if err != nil {
		return "", err
	}
	p := filepath.Join(w.shotDir, ScreenshotName(w.now(), pageURL))
	if err := os.WriteFile(p, img, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// ScreenshotName derives a file name from a UTC timestamp and a short hash
// of the page URL.
func ScreenshotName(t time.Time, pageURL string) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	sum := md5.Sum([]byte(pageURL))
	return fmt.Sprintf("screenshot-%s-%s.png", ts, hex.EncodeToString(sum[:])[:8])
}

var _ agent.Navigator = (*Worker)(nil)
