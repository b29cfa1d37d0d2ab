package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HatiCode/followcast/cmd/followctl/output"
	"github.com/HatiCode/followcast/pkg/analytics"
)

func (a *app) alertsCmd() *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Check recent follower activity for unusual changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if detailed {
				alert, err := a.client.DetailedAlert(cmd.Context())
				if err != nil {
					return err
				}
				if a.asJSON {
					return writeJSON(cmd.OutOrStdout(), alert)
				}
				a.printAlert(string(alert.Kind), alert.Message, alert.Kind == analytics.KindSurge || alert.Kind == analytics.KindLoss)
				return nil
			}

			alert, err := a.client.Alert(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return writeJSON(cmd.OutOrStdout(), alert)
			}
			a.printAlert(string(alert.Status), alert.Message, alert.Status == analytics.StatusUnusual)
			if alert.Status != analytics.StatusInsufficientData {
				a.printer.Info("last change %+d, average %.2f, threshold %.2f", alert.LastChange, alert.AvgChange, alert.Threshold)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "classify the trend (surge, loss, stagnant, ...)")
	return cmd
}

func (a *app) printAlert(label, msg string, warn bool) {
	switch {
	case warn:
		a.printer.Warning("%s: %s", label, msg)
	case strings.Contains(label, "insufficient"):
		a.printer.Info("%s", msg)
	default:
		a.printer.Success("%s", msg)
	}
}

func (a *app) insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show progress toward the next follower milestone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.client.Insight(cmd.Context())
			if err != nil {
				if errors.Is(err, analytics.ErrInsufficientData) {
					return errors.New("no entries recorded yet")
				}
				return err
			}
			if a.asJSON {
				return writeJSON(cmd.OutOrStdout(), in)
			}

			eta := in.Note
			if in.EstimatedDaysToMilestone != nil {
				eta = fmt.Sprintf("%d days", *in.EstimatedDaysToMilestone)
			}

			table := output.NewTable(cmd.OutOrStdout(), "metric", "value")
			table.AddRow("current followers", strconv.Itoa(in.CurrentFollowers))
			table.AddRow("next milestone", a.printer.Bold(strconv.Itoa(in.NextMilestone)))
			table.AddRow("progress", fmt.Sprintf("%.2f%%", in.ProgressPercentage))
			table.AddRow("average daily growth", fmt.Sprintf("%.2f", in.AverageDailyGrowth))
			table.AddRow("estimated time", eta)
			return table.Render()
		},
	}
}

func (a *app) forecastCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project follower counts with a linear trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}
			points, err := a.client.Forecast(cmd.Context(), days)
			if err != nil {
				if errors.Is(err, analytics.ErrInsufficientData) {
					return fmt.Errorf("at least %d entries are needed for a forecast", analytics.MinForecastSamples)
				}
				return err
			}
			if a.asJSON {
				return writeJSON(cmd.OutOrStdout(), points)
			}

			table := output.NewTable(cmd.OutOrStdout(), "date", "day", "forecast")
			for _, p := range points {
				table.AddRow(p.Date, strconv.Itoa(p.Day), strconv.Itoa(p.ForecastedCount))
			}
			return table.Render()
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "days to forecast (0 uses the server default)")
	return cmd
}

func (a *app) changelogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changelog",
		Short: "Show the server's release notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := a.client.Changelog(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return writeJSON(cmd.OutOrStdout(), notes)
			}

			out := cmd.OutOrStdout()
			for _, n := range notes {
				fmt.Fprintf(out, "%s (%s)\n", a.printer.Bold(n.Version), n.Date)
				for _, c := range n.Changes {
					fmt.Fprintf(out, "  - %s\n", c)
				}
			}
			return nil
		},
	}
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server and its datastore are up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Health(cmd.Context()); err != nil {
				a.printer.Error("%s is unhealthy", a.server)
				return err
			}
			a.printer.Success("%s is healthy", a.server)
			return nil
		},
	}
}
