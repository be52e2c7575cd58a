package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shubharthaksangharsha/morpheusAI/internal/app"
	"github.com/shubharthaksangharsha/morpheusAI/internal/router"
)

var (
	askJSON    bool
	askVerbose bool
)

var askCmd = &cobra.Command{
	Use:   "ask [message...]",
	Short: "Route a single request and print the reply",
	Long: `Route a single request through the supervisor and print the reply.

Examples:
  morpheus ask "list files in the current directory"
  morpheus ask '!exec git status'
  morpheus ask --json "search the web for go generics"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the outcome as JSON")
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "Show the routing decision")
}

func runAsk(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")
	if strings.TrimSpace(message) == "" {
		return errors.New("message required. Usage: morpheus ask \"your message\"")
	}

	ctx := context.Background()
	a, err := openApp(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	r := NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), noColor, askJSON, askVerbose)
	out, err := a.Router.Dispatch(ctx, router.Request{Message: message})
	if err != nil {
		return err
	}
	r.Outcome(out)
	if !out.Result.Success {
		name := out.Routed.RoutedAgent
		if name == "" {
			name = "supervisor"
		}
		return fmt.Errorf("%s failed: %s", name, out.Result.Error)
	}
	return nil
}
