package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nvandessel/chartline/internal/chart"
	"github.com/nvandessel/chartline/internal/models"
	"github.com/nvandessel/chartline/internal/sanitize"
)

func newFeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Log in, fetch the user's feed and generate post labels",
		Long: `Run the social demo against the seeded directory: log in, fetch the
user's posts, then generate --posts labels.

The directory is seeded with user "john" (password "password") and three posts.
Latency can be simulated with social.login_latency and social.feed_latency.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			count, _ := cmd.Flags().GetInt("posts")

			labels, err := chart.GeneratePosts(count)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			dir, err := a.openDirectory(ctx)
			if err != nil {
				return err
			}
			defer dir.Close()

			user, err := dir.Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			posts, err := dir.FetchFeed(ctx, user.Username)
			if err != nil {
				return fmt.Errorf("fetch feed: %w", err)
			}
			for i := range posts {
				posts[i].Title = sanitize.Label(posts[i].Title)
				posts[i].Content = sanitize.Text(posts[i].Content)
			}
			generated := slices.Collect(labels)
			if generated == nil {
				generated = []string{}
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"user":      user,
					"feed":      posts,
					"generated": generated,
				})
			}
			printFeed(cmd, user, posts, generated)
			return nil
		},
	}

	cmd.Flags().String("username", "john", "Account to log in as")
	cmd.Flags().String("password", "password", "Account password")
	cmd.Flags().Int("posts", 3, "Number of post labels to generate")

	return cmd
}

func printFeed(cmd *cobra.Command, user models.User, posts []models.Post, generated []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logged in as %s (%s)\n", sanitize.Label(user.Username), sanitize.Label(user.Email))

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Feed:")
	if len(posts) == 0 {
		fmt.Fprintln(out, "  (no posts)")
	}
	for _, p := range posts {
		fmt.Fprintf(out, "  %s: %s\n", p.Title, p.Content)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Generated posts:")
	for _, label := range generated {
		fmt.Fprintf(out, "  %s\n", label)
	}
}
