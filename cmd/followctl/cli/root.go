// Package cli implements the followctl commands.
package cli

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/HatiCode/followcast/cmd/followctl/output"
	"github.com/HatiCode/followcast/pkg/client"
)

const defaultServer = "http://localhost:8080"

type app struct {
	server  string
	timeout time.Duration
	asJSON  bool
	noColor bool

	client  *client.Client
	printer *output.Printer
}

// NewRootCmd builds the followctl command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "followctl",
		Short: "Record and analyse follower counts on a followcast server",
		Long: `followctl talks to a followcast server over its HTTP API.

Example usage:
  followctl add 2024-05-01 1520        # Record today's count
  followctl list                       # Show every entry
  followctl alerts --detailed          # Classify the recent trend
  followctl forecast --days 14         # Project the next two weeks
  followctl export -o followers.csv    # Download a CSV backup`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.client = client.NewWithTimeout(a.server, a.timeout)
			a.printer = output.NewPrinter(cmd.OutOrStdout(), output.ColorsEnabled(a.noColor))
		},
	}

	root.PersistentFlags().StringVar(&a.server, "server", envOr("FOLLOWCAST_URL", defaultServer), "followcast server URL")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 5*time.Second, "request timeout")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print raw JSON")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.listCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.clearCmd(),
		a.alertsCmd(),
		a.insightsCmd(),
		a.forecastCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.changelogCmd(),
		a.healthCmd(),
	)

	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
