package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shubharthaksangharsha/morpheusAI/internal/app"
	"github.com/shubharthaksangharsha/morpheusAI/internal/browser"
)

var agentsCmd = &cobra.Command{
	Use:     "agents",
	Aliases: []string{"ls"},
	Short:   "List the registered agents",
	RunE:    runAgents,
}

func runAgents(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, app.Options{Offline: true, NoWatch: true, Launcher: listOnly})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tDESCRIPTION\t")
	for _, wk := range a.Registry.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", wk.Name(), wk.Kind(), wk.Description())
	}
	return w.Flush()
}

// listOnly keeps the browser closed for commands that do not browse.
func listOnly(context.Context) (browser.Engine, error) {
	return nil, errors.New("browser not started for this command")
}
