package permission

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// DefaultBlockedCommands are substrings that reject a command outright:
// recursive delete, privilege escalation, permission and ownership changes,
// raw device writes, output redirection, pipe-to-shell downloads, eval,
// backtick substitution and moving or copying the filesystem root.
var DefaultBlockedCommands = []string{
	"rm -rf",
	"sudo",
	"chmod",
	"chown",
	"mkfs",
	"dd",
	">",
	">>",
	"curl | bash",
	"wget | bash",
	"eval",
	"`",
	"mv /",
	"cp /",
}

// CommandGuard checks shell commands against a substring denylist. It is a
// blocklist and does not otherwise sanitize the command.
type CommandGuard struct {
	blocked []string
}

// NewCommandGuard creates a guard. With no patterns the default denylist is
// used.
func NewCommandGuard(patterns ...string) *CommandGuard {
	if len(patterns) == 0 {
		patterns = DefaultBlockedCommands
	}
	blocked := make([]string, len(patterns))
	for i, p := range patterns {
		blocked[i] = strings.ToLower(p)
	}
	return &CommandGuard{blocked: blocked}
}

// Check returns a RejectedError if the command contains a blocked pattern.
func (g *CommandGuard) Check(command string) error {
	lower := strings.ToLower(command)
	for _, pattern := range g.blocked {
		if strings.Contains(lower, pattern) {
			return Reject(ReasonCommandBlocked, fmt.Sprintf("contains %q", pattern))
		}
	}
	if strings.TrimSpace(command) == "" {
		return Reject(ReasonCommandBlocked, "empty command")
	}
	return nil
}

// ShellCommand is one simple command found in a shell line.
type ShellCommand struct {
	Name       string   `json:"name"`
	Args       []string `json:"args,omitempty"`
	Subcommand string   `json:"subcommand,omitempty"`
}

// ParseShell splits a shell line into its simple commands (pipelines,
// && chains and subshells are flattened in source order).
func ParseShell(command string) ([]ShellCommand, error) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}

	var commands []ShellCommand
	syntax.Walk(file, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok {
			if cmd, ok := fromCall(call); ok {
				commands = append(commands, cmd)
			}
		}
		return true
	})
	return commands, nil
}

// CommandNames returns the distinct program names a shell line invokes.
// Unparseable input yields nil.
func CommandNames(command string) []string {
	cmds, err := ParseShell(command)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, c := range cmds {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}
	return names
}

func fromCall(call *syntax.CallExpr) (ShellCommand, bool) {
	if len(call.Args) == 0 {
		return ShellCommand{}, false
	}
	cmd := ShellCommand{Name: literal(call.Args[0])}
	if cmd.Name == "" {
		return ShellCommand{}, false
	}
	for _, arg := range call.Args[1:] {
		s := literal(arg)
		cmd.Args = append(cmd.Args, s)
		if cmd.Subcommand == "" && !strings.HasPrefix(s, "-") {
			cmd.Subcommand = s
		}
	}
	return cmd, true
}

func literal(word *syntax.Word) string {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, qp := range p.Parts {
				if lit, ok := qp.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		case *syntax.ParamExp:
			sb.WriteString("$" + p.Param.Value)
		case *syntax.CmdSubst:
			sb.WriteString("$()")
		}
	}
	return sb.String()
}
