package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/chartline/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the chartline MCP tool server over stdio",
		Long: `Serve chartline as Model Context Protocol tools over stdin/stdout.

Tools: chart_load, chart_domains, chart_filter, chart_render, chart_posts,
social_login and social_feed. The resource chartline://chart/current.svg
holds the current chart. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			server, err := mcp.NewServer(&mcp.Config{
				Name:      "chartline",
				Version:   version,
				Root:      a.root,
				SourceURI: a.cfg.Source.URI,
				Session:   a.newSession(),
				Directory: dir,
				Logger:    a.logger,
				Events:    a.events,
			})
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}

			a.logger.Info("mcp server starting", "root", a.root)
			return server.Run(ctx)
		},
	}
}
