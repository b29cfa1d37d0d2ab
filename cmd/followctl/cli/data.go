package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download every entry as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" || path == "-" {
				return a.client.Download(cmd.Context(), cmd.OutOrStdout())
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := a.client.Download(cmd.Context(), f); err != nil {
				f.Close()
				os.Remove(path)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			a.printer.Success("Exported to %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Upload entries from a CSV export",
		Long: `Upload entries from a CSV file with a Date,Count header.

The server rejects the whole file if any date is repeated or already recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			n, err := a.client.Upload(cmd.Context(), f)
			if err != nil {
				return err
			}
			a.printer.Success("Imported %d entries", n)
			return nil
		},
	}
}
