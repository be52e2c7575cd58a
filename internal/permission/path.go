package permission

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// DefaultAllowedExtensions are the file types File-Edit may touch.
var DefaultAllowedExtensions = []string{
	".txt", ".md", ".json", ".js", ".ts", ".html", ".css", ".py", ".java",
	".c", ".cpp", ".h", ".sh", ".yaml", ".yml", ".xml", ".jsx", ".tsx",
	".scss", ".less", ".go", ".php", ".rb",
}

// PathGuard confines paths to a sandbox root and filters file types.
type PathGuard struct {
	root    string
	allowed map[string]bool
}

// NewPathGuard creates a guard for root. With no extensions the default
// allow-list is used.
func NewPathGuard(root string, extensions ...string) (*PathGuard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = DefaultAllowedExtensions
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}
	return &PathGuard{root: filepath.Clean(abs), allowed: allowed}, nil
}

// Root returns the absolute sandbox root.
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve maps a user path onto the sandbox. Leading separators make the
// path root-relative rather than filesystem-absolute. The cleaned result
// must be the root itself or lie beneath it.
func (g *PathGuard) Resolve(p string) (string, error) {
	rel := strings.TrimLeft(filepath.ToSlash(strings.TrimSpace(p)), "/")
	resolved := filepath.Join(g.root, filepath.FromSlash(rel))
	if !within(g.root, resolved) {
		return "", Reject(ReasonPathViolation, p)
	}
	return resolved, nil
}

// Contain rejects a resolved path that leaves the root through a symlink.
// The deepest existing ancestor is evaluated, so paths that do not exist
// yet are checked through the directories that would hold them. An entry
// that exists but whose target does not (a dangling link) is rejected.
func (g *PathGuard) Contain(resolved string) error {
	root, err := filepath.EvalSymlinks(g.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return Reject(ReasonPathViolation, err.Error())
	}

	for p := resolved; ; {
		target, err := filepath.EvalSymlinks(p)
		if err == nil {
			if !within(root, target) {
				return Reject(ReasonPathViolation, g.Rel(resolved))
			}
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
			return Reject(ReasonPathViolation, err.Error())
		}
		if _, lerr := os.Lstat(p); lerr == nil {
			return Reject(ReasonPathViolation, g.Rel(resolved))
		}
		parent := filepath.Dir(p)
		if parent == p {
			return nil
		}
		p = parent
	}
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}

// Rel returns the root-relative form of a resolved path, "." for the root.
func (g *PathGuard) Rel(resolved string) string {
	rel, err := filepath.Rel(g.root, resolved)
	if err != nil {
		return resolved
	}
	return filepath.ToSlash(rel)
}

// CheckExtension rejects files whose extension is not allow-listed.
func (g *PathGuard) CheckExtension(p string) error {
	ext := strings.ToLower(filepath.Ext(p))
	if !g.allowed[ext] {
		if ext == "" {
			ext = "(none)"
		}
		return Reject(ReasonFileTypeNotAllowed, ext)
	}
	return nil
}

// CheckLineRange validates an inclusive 1-based edit range against a file
// of lineCount lines. Either bound may be lineCount+1 to append.
func CheckLineRange(start, end, lineCount int) error {
	if start < 1 || end < start || start > lineCount+1 || end > lineCount+1 {
		return Reject(ReasonInvalidLineRange, "")
	}
	return nil
}
