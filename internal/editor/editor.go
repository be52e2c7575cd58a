package editor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/command"
	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/internal/permission"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

const description = "Reads, writes, edits, creates, deletes and lists files " +
	"in a sandboxed directory. Use for file operations and code analysis."

const assistantPrompt = `You are a file and code assistant working inside a sandbox directory.
Users manipulate files with directives:
  !file read <path>
  !file write <path> <content>
  !file create <path> [content]
  !file edit <path> <startLine> <endLine> <content>
  !file delete <path>
  !file list [path]
Answer questions about files and code. When an action is needed, show the
exact directive the user should send.`

// DefaultIgnore are doublestar patterns hidden from listings.
var DefaultIgnore = []string{".git", "node_modules", "**/.DS_Store"}

var fileMention = regexp.MustCompile(`(?i)\bfile\s+([\w./-]+\.\w+)`)

// Entry is one listing row.
type Entry struct {
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"sizeFormatted"`
	Modified      time.Time `json:"modified"`
	IsDirectory   bool      `json:"isDirectory"`
}

// Worker is the File-Edit worker.
type Worker struct {
	agent.Info
	guard     *permission.PathGuard
	fs        afero.Fs
	ignore    []string
	exts      []string
	completer provider.Completer
	bus       *event.Bus
	log       zerolog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithCompleter sets the completion service used for natural-language input.
func WithCompleter(c provider.Completer) Option {
	return func(w *Worker) { w.completer = c }
}

// WithBus publishes sandbox rejections on bus.
func WithBus(bus *event.Bus) Option {
	return func(w *Worker) { w.bus = bus }
}

// WithExtensions replaces the extension allow-list.
func WithExtensions(exts ...string) Option {
	return func(w *Worker) { w.exts = exts }
}

// WithIgnore replaces the listing ignore patterns.
func WithIgnore(patterns ...string) Option {
	return func(w *Worker) { w.ignore = patterns }
}

// New creates a File-Edit worker confined to root.
func New(root string, opts ...Option) (*Worker, error) {
	w := &Worker{
		Info:   agent.NewInfo(agent.NameEditor, description, agent.KindFile),
		ignore: DefaultIgnore,
		log:    logging.Component("editor"),
	}
	for _, opt := range opts {
		opt(w)
	}
	guard, err := permission.NewPathGuard(root, w.exts...)
	if err != nil {
		return nil, fmt.Errorf("editor root: %w", err)
	}
	w.guard = guard
	w.fs = afero.NewBasePathFs(afero.NewOsFs(), guard.Root())
	return w, nil
}

// Root returns the absolute sandbox directory.
func (w *Worker) Root() string { return w.guard.Root() }

// Initialize creates the sandbox directory.
func (w *Worker) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(w.guard.Root(), 0o755); err != nil {
		return fmt.Errorf("create editor sandbox: %w", err)
	}
	w.log.Info().Str("root", w.guard.Root()).Msg("editor sandbox ready")
	return nil
}

// Shutdown is a no-op.
func (w *Worker) Shutdown(ctx context.Context) error { return nil }

// Apply performs one file operation.
func (w *Worker) Apply(ctx context.Context, req agent.FileRequest) agent.Result {
	if err := ctx.Err(); err != nil {
		return agent.Fail(agent.CodeTimeout, err.Error(), nil)
	}

	abs, err := w.guard.Resolve(req.Path)
	if err != nil {
		return w.rejected(err)
	}
	if err := w.guard.Contain(abs); err != nil {
		return w.rejected(err)
	}
	if req.Op != agent.OpList {
		if err := w.guard.CheckExtension(abs); err != nil {
			return w.rejected(err)
		}
	}
	rel := w.guard.Rel(abs)
	name := "/" + rel
	if rel == "." {
		name = "/"
	}

	w.log.Debug().Str("op", string(req.Op)).Str("path", rel).Msg("file operation")

	switch req.Op {
	case agent.OpRead:
		return w.read(name, rel)
	case agent.OpWrite:
		return w.write(name, rel, req.Content, false)
	case agent.OpCreate:
		return w.write(name, rel, req.Content, true)
	case agent.OpEdit:
		return w.edit(name, rel, req)
	case agent.OpDelete:
		return w.remove(name, rel)
	case agent.OpList:
		return w.list(name, rel)
	}
	return agent.Failf(agent.CodeInvalidRequest, "Unknown file operation: %s", req.Op)
}

func (w *Worker) rejected(err error) agent.Result {
	agent.NotifyRejected(w.bus, w.Name(), err)
	return agent.FromError(err)
}

func (w *Worker) read(name, rel string) agent.Result {
	info, err := w.fs.Stat(name)
	if err != nil {
		return w.statError(err, rel)
	}
	if info.IsDir() {
		return agent.Failf(agent.CodeInvalidRequest, "Path is a directory: %s", rel)
	}
	data, err := afero.ReadFile(w.fs, name)
	if err != nil {
		return agent.Failf(agent.CodeInternal, "Error reading file: %v", err)
	}
	content := string(data)
	lines, _ := splitLines(content)
	return agent.OK(
		fmt.Sprintf("Contents of %s:\n\n```%s\n%s\n```", rel, strings.TrimPrefix(path.Ext(rel), "."), strings.TrimSuffix(content, "\n")),
		map[string]any{
			"filePath":  rel,
			"content":   content,
			"lineCount": len(lines),
			"size":      info.Size(),
		},
	)
}

func (w *Worker) write(name, rel, content string, create bool) agent.Result {
	before := ""
	info, err := w.fs.Stat(name)
	switch {
	case err == nil && info.IsDir():
		return agent.Failf(agent.CodeInvalidRequest, "Path is a directory: %s", rel)
	case err == nil && create:
		return agent.Failf(agent.CodeAlreadyExists, "File already exists: %s", rel)
	case err == nil:
		data, rerr := afero.ReadFile(w.fs, name)
		if rerr == nil {
			before = string(data)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return agent.Failf(agent.CodeInternal, "Error accessing file: %v", err)
	}

	if err := w.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return agent.Failf(agent.CodeInternal, "Error creating directories: %v", err)
	}
	if err := afero.WriteFile(w.fs, name, []byte(content), 0o644); err != nil {
		return agent.Failf(agent.CodeInternal, "Error writing file: %v", err)
	}

	diff, added, deleted := diffStats(rel, before, content)
	verb := "written"
	if create {
		verb = "created"
	}
	return agent.OK(fmt.Sprintf("File %s successfully: %s", verb, rel), map[string]any{
		"filePath":  rel,
		"bytes":     len(content),
		"diff":      diff,
		"additions": added,
		"deletions": deleted,
	})
}

func (w *Worker) edit(name, rel string, req agent.FileRequest) agent.Result {
	data, err := afero.ReadFile(w.fs, name)
	if err != nil {
		return w.statError(err, rel)
	}
	before := string(data)
	lines, trailing := splitLines(before)

	if err := permission.CheckLineRange(req.LineStart, req.LineEnd, len(lines)); err != nil {
		return w.rejected(err)
	}

	updated := replaceLines(lines, req.LineStart, req.LineEnd, req.Content)
	after := strings.Join(updated, "\n")
	if trailing {
		after += "\n"
	}
	if err := afero.WriteFile(w.fs, name, []byte(after), 0o644); err != nil {
		return agent.Failf(agent.CodeInternal, "Error writing file: %v", err)
	}

	diff, added, deleted := diffStats(rel, before, after)
	return agent.OK(
		fmt.Sprintf("File edited successfully: %s (lines %d-%d replaced)", rel, req.LineStart, req.LineEnd),
		map[string]any{
			"filePath":  rel,
			"lineCount": len(updated),
			"diff":      diff,
			"additions": added,
			"deletions": deleted,
		},
	)
}

func (w *Worker) remove(name, rel string) agent.Result {
	info, err := w.fs.Stat(name)
	if err != nil {
		return w.statError(err, rel)
	}
	if info.IsDir() {
		return agent.Failf(agent.CodeInvalidRequest, "Path is a directory: %s", rel)
	}
	if err := w.fs.Remove(name); err != nil {
		return agent.Failf(agent.CodeInternal, "Error deleting file: %v", err)
	}
	return agent.OK(fmt.Sprintf("File deleted successfully: %s", rel), map[string]any{"filePath": rel})
}

func (w *Worker) list(name, rel string) agent.Result {
	info, err := w.fs.Stat(name)
	if err != nil {
		return w.statError(err, rel)
	}
	if !info.IsDir() {
		return agent.Failf(agent.CodeNotADirectory, "Not a directory: %s", rel)
	}
	infos, err := afero.ReadDir(w.fs, name)
	if err != nil {
		return agent.Failf(agent.CodeInternal, "Error listing directory: %v", err)
	}

	var files, dirs []Entry
	for _, fi := range infos {
		childRel := path.Join(rel, fi.Name())
		if w.ignored(childRel, fi.Name()) {
			continue
		}
		e := Entry{
			Name:        fi.Name(),
			Path:        childRel,
			Size:        fi.Size(),
			Modified:    fi.ModTime(),
			IsDirectory: fi.IsDir(),
		}
		if fi.IsDir() {
			e.Size = w.dirSize(path.Join(name, fi.Name()))
		}
		e.SizeFormatted = FormatSize(e.Size)
		if e.IsDirectory {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var sb strings.Builder
	fmt.Fprintf(&sb, "Contents of directory: %s\n\n", rel)
	if len(dirs) == 0 && len(files) == 0 {
		sb.WriteString("Directory is empty.")
	}
	if len(dirs) > 0 {
		sb.WriteString("Directories:\n")
		for _, d := range dirs {
			fmt.Fprintf(&sb, "- 📁 %s/ (%s)\n", d.Name, d.SizeFormatted)
		}
		sb.WriteString("\n")
	}
	if len(files) > 0 {
		sb.WriteString("Files:\n")
		for _, f := range files {
			fmt.Fprintf(&sb, "- 📄 %s (%s)\n", f.Name, f.SizeFormatted)
		}
	}

	return agent.OK(strings.TrimRight(sb.String(), "\n"), map[string]any{
		"directoryPath": rel,
		"files":         nonNil(files),
		"directories":   nonNil(dirs),
	})
}

func nonNil(e []Entry) []Entry {
	if e == nil {
		return []Entry{}
	}
	return e
}

func (w *Worker) ignored(rel, base string) bool {
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// dirSize sums the sizes of all regular files beneath name.
func (w *Worker) dirSize(name string) int64 {
	var total int64
	_ = afero.Walk(w.fs, name, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total
}

func (w *Worker) statError(err error, rel string) agent.Result {
	if errors.Is(err, fs.ErrNotExist) {
		return agent.Failf(agent.CodeNotFound, "File not found: %s", rel)
	}
	return agent.Failf(agent.CodeInternal, "Error accessing %s: %v", rel, err)
}

// Handle runs !file directives directly. Other input goes to the
// completion service, with the content of any mentioned sandbox file
// attached.
func (w *Worker) Handle(ctx context.Context, input string, history []types.Message) agent.Result {
	if d, ok := command.Parse(input); ok && d.Name == command.File {
		fa, err := command.ParseFile(d.Args)
		if err != nil {
			return agent.Fail(agent.CodeInvalidRequest, err.Error(), nil)
		}
		op, _ := agent.ParseFileOp(fa.Op)
		return w.Apply(ctx, agent.FileRequest{
			Op:        op,
			Path:      fa.Path,
			Content:   fa.Content,
			LineStart: fa.LineStart,
			LineEnd:   fa.LineEnd,
		})
	}

	if w.completer == nil {
		return agent.Fail(agent.CodeUpstream, "No completion service is configured. Use !file <operation> <path> to work with files.", nil)
	}

	prompt := input
	if attached, ok := w.attachment(input); ok {
		prompt = input + "\n\n" + attached
	}
	conv := append(append([]types.Message(nil), history...), types.NewMessage(types.RoleUser, prompt))
	reply, err := w.completer.Complete(ctx, assistantPrompt, conv)
	if err != nil {
		return agent.Fail(agent.CodeUpstream, "I encountered an error processing your request: "+err.Error(),
			map[string]any{"upstream": err.Error()})
	}
	return agent.OK(reply, nil)
}

// attachment returns the content of a sandbox file named in input as
// "file <path>", if it exists and is allowed.
func (w *Worker) attachment(input string) (string, bool) {
	m := fileMention.FindStringSubmatch(input)
	if m == nil {
		return "", false
	}
	abs, err := w.guard.Resolve(m[1])
	if err != nil || w.guard.CheckExtension(abs) != nil || w.guard.Contain(abs) != nil {
		return "", false
	}
	data, err := afero.ReadFile(w.fs, filepath.ToSlash("/"+w.guard.Rel(abs)))
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("Content of %s:\n```\n%s\n```", m[1], string(data)), true
}

var _ agent.FileEditor = (*Worker)(nil)
