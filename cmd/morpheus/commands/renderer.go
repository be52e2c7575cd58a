package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/router"
)

// Renderer prints the conversation to the terminal, or as JSON lines.
type Renderer struct {
	out     io.Writer
	errOut  io.Writer
	json    bool
	verbose bool
}

// NewRenderer creates a renderer. noColor disables ANSI colors globally.
func NewRenderer(out, errOut io.Writer, noColor, jsonOut, verbose bool) *Renderer {
	color.NoColor = noColor || jsonOut
	return &Renderer{out: out, errOut: errOut, json: jsonOut, verbose: verbose}
}

func (r *Renderer) emit(v any) {
	b, _ := json.Marshal(v)
	fmt.Fprintln(r.out, string(b))
}

// Banner prints the session header.
func (r *Renderer) Banner(sessionID string, agents int) {
	if r.json {
		return
	}
	fmt.Fprintln(r.errOut, color.New(color.FgHiBlack).Sprintf("Session %s (%d agents)", sessionID, agents))
}

// Help prints help text.
func (r *Renderer) Help(text string) {
	if r.json {
		return
	}
	fmt.Fprintln(r.out, text)
}

// User echoes the user's input.
func (r *Renderer) User(input string) {
	if r.json {
		r.emit(map[string]string{"type": "user", "text": input})
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", color.New(color.FgCyan, color.Bold).Sprint("you ›"), input)
}

// Outcome prints the reply together with how it was routed.
func (r *Renderer) Outcome(o router.Outcome) {
	if r.json {
		r.emit(map[string]any{
			"type":       "agent",
			"agent":      o.Decision.AgentName,
			"source":     o.Decision.Source,
			"confidence": o.Decision.Confidence,
			"result":     o.Result,
		})
		return
	}

	if r.verbose {
		agentName := o.Decision.AgentName
		if agentName == "" {
			agentName = "supervisor"
		}
		fmt.Fprintln(r.errOut, color.New(color.FgYellow).Sprintf("→ %s (%s, %.2f)",
			agentName, o.Decision.Source, o.Decision.Confidence))
	}

	label := color.New(color.FgGreen, color.Bold).Sprint("morpheus ›")
	if !o.Result.Success {
		label = color.New(color.FgRed, color.Bold).Sprint("morpheus ›")
	}
	fmt.Fprintf(r.out, "%s %s\n", label, o.Result.Content)
}

// Result prints a worker result without routing details.
func (r *Renderer) Result(res agent.Result) {
	if r.json {
		r.emit(res)
		return
	}
	if !res.Success {
		fmt.Fprintln(r.errOut, color.New(color.FgRed).Sprint(res.Content))
		return
	}
	fmt.Fprintln(r.out, res.Content)
}

// Notice prints a dimmed informational line.
func (r *Renderer) Notice(format string, args ...any) {
	if r.json {
		r.emit(map[string]string{"type": "notice", "text": fmt.Sprintf(format, args...)})
		return
	}
	fmt.Fprintln(r.out, color.New(color.FgHiBlack).Sprintf(format, args...))
}

// Error prints a failure to the error stream.
func (r *Renderer) Error(err error) {
	if r.json {
		r.emit(map[string]string{"type": "error", "text": err.Error()})
		return
	}
	fmt.Fprintln(r.errOut, color.New(color.FgRed).Sprintf("error: %v", err))
}
