package command

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Name identifies a directive.
type Name string

const (
	Exec     Name = "exec"
	File     Name = "file"
	Tool     Name = "tool"
	Register Name = "register"
	ListTool Name = "list tools"
	APIKey   Name = "apikey"
	Plan     Name = "plan"
)

// Prefix starts every directive.
const Prefix = "!"

// Directive is a parsed "!" directive. Args is the raw remainder after the
// directive name, trimmed.
type Directive struct {
	Name Name
	Args string
}

// Parse recognizes a directive at the start of input.
func Parse(input string) (Directive, bool) {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, Prefix) {
		return Directive{}, false
	}
	body := s[len(Prefix):]
	lower := strings.ToLower(body)

	if lower == string(ListTool) || strings.HasPrefix(lower, string(ListTool)+" ") {
		return Directive{Name: ListTool}, true
	}

	head, rest := SplitWord(body)
	switch n := Name(strings.ToLower(head)); n {
	case Exec, File, Tool, Register, APIKey, Plan:
		return Directive{Name: n, Args: rest}, true
	}
	return Directive{}, false
}

// HasExec reports whether input starts with the !exec directive.
func HasExec(input string) bool {
	d, ok := Parse(input)
	return ok && d.Name == Exec
}

// FileArgs are the arguments of a !file directive.
type FileArgs struct {
	Op        string
	Path      string
	Content   string
	LineStart int
	LineEnd   int
}

// ParseFile splits "!file" arguments. Content keeps its internal newlines.
//
//	read <path> | delete <path> | list [path]
//	write <path> <content> | create <path> [content]
//	edit <path> <start> <end> <content>
func ParseFile(args string) (FileArgs, error) {
	op, rest := SplitWord(args)
	if op == "" {
		return FileArgs{}, fmt.Errorf("missing file operation")
	}
	fa := FileArgs{Op: strings.ToLower(op)}
	fa.Path, rest = SplitWord(rest)

	switch fa.Op {
	case "list":
		if fa.Path == "" {
			fa.Path = "."
		}
		return fa, nil
	case "read", "delete":
	case "write", "create":
		fa.Content = rest
	case "edit":
		var start, end string
		start, rest = SplitWord(rest)
		end, rest = SplitWord(rest)
		var err error
		if fa.LineStart, err = strconv.Atoi(start); err != nil {
			return FileArgs{}, fmt.Errorf("invalid start line %q", start)
		}
		if fa.LineEnd, err = strconv.Atoi(end); err != nil {
			return FileArgs{}, fmt.Errorf("invalid end line %q", end)
		}
		fa.Content = rest
	default:
		return FileArgs{}, fmt.Errorf("unknown file operation %q", op)
	}
	if fa.Path == "" {
		return FileArgs{}, fmt.Errorf("missing path for %s", fa.Op)
	}
	return fa, nil
}

// ParseToolParams parses the parameter part of a !tool directive. It accepts
// a JSON object, space-separated key:value (or key=value) pairs, or a single
// bare value which is returned under the empty key for the caller to bind.
func ParseToolParams(s string) (map[string]any, error) {
	s = strings.TrimSpace(s)
	params := map[string]any{}
	if s == "" {
		return params, nil
	}
	if strings.HasPrefix(s, "{") {
		if err := json.Unmarshal([]byte(s), &params); err != nil {
			return nil, fmt.Errorf("invalid JSON parameters: %w", err)
		}
		return params, nil
	}

	fields := strings.Fields(s)
	pairs := 0
	for _, f := range fields {
		if k, v, ok := cutPair(f); ok {
			params[k] = v
			pairs++
		}
	}
	if pairs == 0 {
		return map[string]any{"": s}, nil
	}
	if pairs != len(fields) {
		return nil, fmt.Errorf("mixed key:value and bare parameters")
	}
	return params, nil
}

// PlanArgs are the arguments of a !plan directive.
type PlanArgs struct {
	Action string
	ID     string
	Text   string
}

// ParsePlan splits "!plan" arguments.
func ParsePlan(args string) (PlanArgs, error) {
	action, rest := SplitWord(args)
	pa := PlanArgs{Action: strings.ToLower(action)}
	switch pa.Action {
	case "list":
		return pa, nil
	case "create":
		if rest == "" {
			return PlanArgs{}, fmt.Errorf("missing plan description")
		}
		pa.Text = rest
	case "details":
		pa.ID, _ = SplitWord(rest)
		if pa.ID == "" {
			return PlanArgs{}, fmt.Errorf("missing plan id")
		}
	case "update":
		pa.ID, pa.Text = SplitWord(rest)
		if pa.ID == "" || pa.Text == "" {
			return PlanArgs{}, fmt.Errorf("usage: !plan update <id> <changes>")
		}
	default:
		return PlanArgs{}, fmt.Errorf("unknown plan action %q", action)
	}
	return pa, nil
}

// SplitWord returns the first whitespace-delimited word of s and the
// trimmed remainder.
func SplitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t\n")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func cutPair(f string) (string, string, bool) {
	i := strings.IndexAny(f, ":=")
	if i <= 0 || i == len(f)-1 {
		return "", "", false
	}
	// URLs are values, not pairs.
	if strings.HasPrefix(f[i:], "://") {
		return "", "", false
	}
	return f[:i], f[i+1:], true
}
