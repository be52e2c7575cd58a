package agent

import (
	"context"
	"fmt"

	"github.com/shubharthaksangharsha/morpheusAI/internal/permission"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// Kind tags the capability a worker provides.
type Kind string

const (
	KindCommand Kind = "command"
	KindFile    Kind = "file"
	KindBrowser Kind = "browser"
	KindPlanner Kind = "planner"
	KindTool    Kind = "tool"
)

// Display names of the built-in workers. The router's prompt and the
// fallback rules refer to workers by these names.
const (
	NameTerminal = "Terminal Agent"
	NameEditor   = "Editor Agent"
	NameWeb      = "Web Agent"
	NamePlanner  = "Planner Agent"
	NameTool     = "Tool Agent"
)

// Result is the outcome of a worker call.
type Result = types.AgentResult

// Error codes for failed Results that are not sandbox rejections.
const (
	CodeNotFound           = "not_found"
	CodeAlreadyExists      = "already_exists"
	CodeNotADirectory      = "not_a_directory"
	CodeNoActivePage       = "no_active_page"
	CodeBrowserUnavailable = "browser_unavailable"
	CodeExecutionFailed    = "execution_failed"
	CodeTimeout            = "timeout"
	CodeUpstream           = "upstream_error"
	CodeMissingCredential  = "missing_credential"
	CodeMissingParameter   = "missing_parameter"
	CodeInvalidRequest     = "invalid_request"
	CodeUnknownTool        = "unknown_tool"
	CodeParseFailed        = "parse_failed"
	CodeInternal           = "internal_error"
)

// Worker is a capability-bound handler. Handle never panics past its
// boundary and reports every failure as a Result with Success false.
type Worker interface {
	Name() string
	Description() string
	Kind() Kind

	// Initialize prepares the worker's sandbox. It may be called again
	// after a failure.
	Initialize(ctx context.Context) error
	// Shutdown releases held resources.
	Shutdown(ctx context.Context) error

	// Handle processes a free-form message with the recent conversation.
	Handle(ctx context.Context, input string, history []types.Message) Result
}

// Info implements the identity half of Worker for embedding.
type Info struct {
	name        string
	description string
	kind        Kind
}

// NewInfo creates an Info.
func NewInfo(name, description string, kind Kind) Info {
	return Info{name: name, description: description, kind: kind}
}

func (i Info) Name() string        { return i.name }
func (i Info) Description() string { return i.description }
func (i Info) Kind() Kind          { return i.kind }

// OK builds a successful Result.
func OK(content string, data map[string]any) Result {
	return Result{Content: content, Success: true, Data: data}
}

// Fail builds a failed Result.
func Fail(code, content string, data map[string]any) Result {
	return Result{Content: content, Success: false, Error: code, Data: data}
}

// Failf builds a failed Result with a formatted message.
func Failf(code, format string, args ...any) Result {
	return Fail(code, fmt.Sprintf(format, args...), nil)
}

// FromError converts err into a failed Result. Sandbox rejections keep
// their reason code.
func FromError(err error) Result {
	if rej, ok := permission.AsRejected(err); ok {
		data := map[string]any{"reason": string(rej.Reason)}
		if rej.Detail != "" {
			data["detail"] = rej.Detail
		}
		return Fail(string(rej.Reason), rej.Message(), data)
	}
	return Fail(CodeInternal, err.Error(), nil)
}

// Rejected reports whether r is a sandbox rejection.
func Rejected(r Result) bool {
	switch permission.Reason(r.Error) {
	case permission.ReasonCommandBlocked, permission.ReasonDomainBlocked,
		permission.ReasonPathViolation, permission.ReasonFileTypeNotAllowed,
		permission.ReasonInvalidLineRange:
		return true
	}
	return false
}
