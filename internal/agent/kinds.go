package agent

import (
	"context"
	"strings"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// CommandRunner executes shell commands in a confined directory.
type CommandRunner interface {
	Worker
	Execute(ctx context.Context, command string) Result
}

// FileOp is a File-Edit operation.
type FileOp string

const (
	OpRead   FileOp = "read"
	OpWrite  FileOp = "write"
	OpEdit   FileOp = "edit"
	OpDelete FileOp = "delete"
	OpCreate FileOp = "create"
	OpList   FileOp = "list"
)

// ParseFileOp parses an operation name case-insensitively.
func ParseFileOp(s string) (FileOp, bool) {
	op := FileOp(strings.ToLower(strings.TrimSpace(s)))
	switch op {
	case OpRead, OpWrite, OpEdit, OpDelete, OpCreate, OpList:
		return op, true
	}
	return "", false
}

// FileRequest is one File-Edit call. LineStart and LineEnd are used by
// OpEdit only.
type FileRequest struct {
	Op        FileOp `json:"op"`
	Path      string `json:"path"`
	Content   string `json:"content,omitempty"`
	LineStart int    `json:"lineStart,omitempty"`
	LineEnd   int    `json:"lineEnd,omitempty"`
}

// FileEditor performs file operations inside a confined directory.
type FileEditor interface {
	Worker
	Apply(ctx context.Context, req FileRequest) Result
}

// Navigator drives a single browser page.
type Navigator interface {
	Worker
	Navigate(ctx context.Context, url string) Result
	Screenshot(ctx context.Context) Result
	Extract(ctx context.Context) Result
	Search(ctx context.Context, query string) Result
}

// Planner creates and maintains structured plans.
type Planner interface {
	Worker
	CreatePlan(ctx context.Context, description string) Result
	UpdatePlan(ctx context.Context, id, changes string) Result
	ListPlans(ctx context.Context) Result
	GetPlan(ctx context.Context, id string) Result
}

// ToolInvoker calls registered external HTTP tools.
type ToolInvoker interface {
	Worker
	Register(ctx context.Context, def types.ToolDefinition) Result
	RegisterText(ctx context.Context, text string) Result
	Invoke(ctx context.Context, name string, params map[string]any) Result
	SetCredential(name, secret string) Result
	ListTools() Result
}
