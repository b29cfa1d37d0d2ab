package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/HatiCode/followcast/cmd/followctl/output"
	"github.com/HatiCode/followcast/pkg/client"
	"github.com/HatiCode/followcast/pkg/storage"
)

func (a *app) listCmd() *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded entries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				entries []client.Entry
				total   int
			)
			if page > 0 {
				p, err := a.client.EntriesPage(cmd.Context(), page, limit)
				if err != nil {
					return err
				}
				entries, total = p.Entries, p.Total
			} else {
				all, err := a.client.Entries(cmd.Context())
				if err != nil {
					return err
				}
				entries, total = all, len(all)
			}

			if a.asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				a.printer.Info("No entries recorded.")
				return nil
			}

			table := output.NewTable(cmd.OutOrStdout(), "date", "count", "change")
			prev := -1
			for _, e := range entries {
				change := ""
				if prev >= 0 {
					change = fmt.Sprintf("%+d", e.Count-prev)
				}
				table.AddRow(e.Date, strconv.Itoa(e.Count), change)
				prev = e.Count
			}
			if err := table.Render(); err != nil {
				return err
			}
			if page > 0 {
				a.printer.Info("page %d, %d of %d entries", page, len(entries), total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "page number (1-based); 0 lists everything")
	cmd.Flags().IntVar(&limit, "limit", 50, "entries per page")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add DATE COUNT",
		Short: "Record the follower count for a date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, count, err := parseEntry(args[0], args[1])
			if err != nil {
				return err
			}
			if err := a.client.AddEntry(cmd.Context(), date, count); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return fmt.Errorf("an entry for %s already exists; use update to change it", date)
				}
				return err
			}
			a.printer.Success("Recorded %d followers on %s", count, date)
			return nil
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	var newDate string

	cmd := &cobra.Command{
		Use:   "update DATE COUNT",
		Short: "Change the count of an entry, optionally moving it to --new-date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, count, err := parseEntry(args[0], args[1])
			if err != nil {
				return err
			}
			if newDate != "" {
				if _, err := storage.ParseDate(newDate); err != nil {
					return err
				}
			}
			if err := a.client.UpdateEntry(cmd.Context(), date, count, newDate); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no entry for %s", date)
				}
				return err
			}

			if newDate != "" && newDate != date {
				a.printer.Success("Moved %s to %s with %d followers", date, newDate, count)
			} else {
				a.printer.Success("Updated %s to %d followers", date, count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&newDate, "new-date", "", "move the entry to this date")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete DATE",
		Aliases: []string{"rm"},
		Short:   "Delete the entry for a date",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := storage.ParseDate(args[0]); err != nil {
				return err
			}
			if err := a.client.DeleteEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printer.Success("Deleted %s", args[0])
			return nil
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete every entry without --yes")
			}
			if err := a.client.Clear(cmd.Context()); err != nil {
				return err
			}
			a.printer.Success("All entries deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion of every entry")
	return cmd
}

func parseEntry(date, rawCount string) (string, int, error) {
	if _, err := storage.ParseDate(date); err != nil {
		return "", 0, err
	}
	count, err := strconv.Atoi(rawCount)
	if err != nil || count < 0 {
		return "", 0, fmt.Errorf("count must be a non-negative integer, got %q", rawCount)
	}
	return date, count, nil
}
