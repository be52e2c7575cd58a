package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/app"
	"github.com/shubharthaksangharsha/morpheusAI/internal/browser"
)

// The direct commands bypass the router and call one worker operation,
// the same way the per-agent HTTP endpoints do.

var directJSON bool

var execCmd = &cobra.Command{
	Use:   "exec [command...]",
	Short: "Run a shell command in the command sandbox",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorker(cmd, false, func(ctx context.Context, a *app.App) agent.Result {
			return a.Terminal.Execute(ctx, strings.Join(args, " "))
		})
	},
}

var fileCmd = &cobra.Command{
	Use:   "file <read|write|edit|delete|create|list> [path] [content...]",
	Short: "Run a file operation in the editor sandbox",
	Long: `Run a file operation in the editor sandbox.

Examples:
  morpheus file list
  morpheus file read notes.md
  morpheus file write notes.md "hello world"
  morpheus file edit notes.md 2 3 "replacement lines"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFile,
}

var browseCmd = &cobra.Command{
	Use:   "browse <url>",
	Short: "Open a web page and print its title and excerpt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorker(cmd, true, func(ctx context.Context, a *app.App) agent.Result {
			return a.Browser.Navigate(ctx, args[0])
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the web and print the top results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorker(cmd, true, func(ctx context.Context, a *app.App) agent.Result {
			return a.Browser.Search(ctx, strings.Join(args, " "))
		})
	},
}

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "List or invoke registered API tools",
}

var toolListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the registered tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorker(cmd, false, func(ctx context.Context, a *app.App) agent.Result {
			return a.Tools.ListTools()
		})
	},
}

var toolParams string

var toolInvokeCmd = &cobra.Command{
	Use:   "invoke <name>",
	Short: "Invoke a registered tool",
	Long: `Invoke a registered tool with JSON parameters.

Example:
  morpheus tool invoke weather --params '{"location":"Paris"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params map[string]any
		if toolParams != "" {
			if err := json.Unmarshal([]byte(toolParams), &params); err != nil {
				return fmt.Errorf("invalid --params: %w", err)
			}
		}
		return withWorker(cmd, false, func(ctx context.Context, a *app.App) agent.Result {
			return a.Tools.Invoke(ctx, args[0], params)
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Create, update and inspect plans",
}

var planCreateCmd = &cobra.Command{
	Use:   "create [description...]",
	Short: "Create a plan from a description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorker(cmd, false, func(ctx context.Context, a *app.App) agent.Result {
			return a.Planner.CreatePlan(ctx, strings.Join(args, " "))
		})
	},
}

var planUpdateCmd = &cobra.Command{
	Use:   "update <id> [changes...]",
	Short: "Apply changes to a plan",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorker(cmd, false, func(ctx context.Context, a *app.App) agent.Result {
			return a.Planner.UpdatePlan(ctx, args[0], strings.Join(args[1:], " "))
		})
	},
}

var planListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorker(cmd, false, func(ctx context.Context, a *app.App) agent.Result {
			return a.Planner.ListPlans(ctx)
		})
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a plan's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorker(cmd, false, func(ctx context.Context, a *app.App) agent.Result {
			return a.Planner.GetPlan(ctx, args[0])
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{execCmd, fileCmd, browseCmd, searchCmd, toolCmd, planCmd} {
		c.PersistentFlags().BoolVar(&directJSON, "json", false, "Print the result as JSON")
		rootCmd.AddCommand(c)
	}
	toolInvokeCmd.Flags().StringVar(&toolParams, "params", "", "Tool parameters as a JSON object")
	toolCmd.AddCommand(toolListCmd, toolInvokeCmd)
	planCmd.AddCommand(planCreateCmd, planUpdateCmd, planListCmd, planShowCmd)
}

// fileRequest builds a FileRequest from positional arguments.
func fileRequest(args []string) (agent.FileRequest, error) {
	op, ok := agent.ParseFileOp(args[0])
	if !ok {
		return agent.FileRequest{}, fmt.Errorf("unknown file operation %q", args[0])
	}
	req := agent.FileRequest{Op: op}
	rest := args[1:]
	if len(rest) == 0 {
		if op != agent.OpList {
			return req, fmt.Errorf("%s needs a path", op)
		}
		return req, nil
	}
	req.Path, rest = rest[0], rest[1:]

	if op == agent.OpEdit {
		if len(rest) < 2 {
			return req, fmt.Errorf("edit needs <path> <start> <end> [content]")
		}
		start, err1 := strconv.Atoi(rest[0])
		end, err2 := strconv.Atoi(rest[1])
		if err1 != nil || err2 != nil {
			return req, fmt.Errorf("edit line numbers must be integers")
		}
		req.LineStart, req.LineEnd, rest = start, end, rest[2:]
	}
	req.Content = strings.Join(rest, " ")
	return req, nil
}

func runFile(cmd *cobra.Command, args []string) error {
	req, err := fileRequest(args)
	if err != nil {
		return err
	}
	return withWorker(cmd, false, func(ctx context.Context, a *app.App) agent.Result {
		return a.Editor.Apply(ctx, req)
	})
}

// withWorker opens the application, runs fn and prints its Result. The
// browser is only launched when needsBrowser is set.
func withWorker(cmd *cobra.Command, needsBrowser bool, fn func(context.Context, *app.App) agent.Result) error {
	ctx := context.Background()
	opts := app.Options{NoWatch: true}
	if !needsBrowser {
		opts.Launcher = browser.Launcher(listOnly)
	}
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res := fn(ctx, a)
	r := NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), noColor, directJSON, false)
	r.Result(res)
	if !res.Success {
		return fmt.Errorf("%s: %s", cmd.Name(), res.Error)
	}
	return nil
}
