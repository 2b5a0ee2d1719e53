package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nvandessel/chartline/internal/chart"
)

func newPostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "posts <count>",
		Short: "Print the post labels Post 1 through Post <count>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[0])
			if err != nil {
				return &chart.InvalidArgumentError{Name: "count", Reason: "must be an integer, got " + args[0]}
			}
			seq, err := chart.GeneratePosts(count)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				posts := slices.Collect(seq)
				if posts == nil {
					posts = []string{}
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"posts": posts, "count": len(posts)})
			}

			for post := range seq {
				fmt.Fprintln(cmd.OutOrStdout(), post)
			}
			return nil
		},
	}
}
