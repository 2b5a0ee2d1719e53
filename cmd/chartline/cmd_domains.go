package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDomainsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "Print the x and y scale domains of a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			uri, err := a.source(cmd)
			if err != nil {
				return err
			}

			sess := a.newSession()
			points, err := sess.LoadDataset(cmd.Context(), uri)
			if err != nil {
				return fmt.Errorf("load dataset: %w", err)
			}
			x, y, err := sess.Domains()
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"source":   uri,
					"points":   len(points),
					"x_domain": x,
					"y_domain": y,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "points: %d\n", len(points))
			fmt.Fprintf(cmd.OutOrStdout(), "x: [%g, %g]\n", x.Min, x.Max)
			fmt.Fprintf(cmd.OutOrStdout(), "y: [%g, %g]\n", y.Min, y.Max)
			return nil
		},
	}

	cmd.Flags().String("source", "", "Dataset URI or file path (default from config)")

	return cmd
}
