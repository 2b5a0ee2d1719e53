package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/chartline/internal/chart"
	"github.com/nvandessel/chartline/internal/models"
	"github.com/nvandessel/chartline/internal/pathutil"
	"github.com/nvandessel/chartline/internal/session"
	"github.com/nvandessel/chartline/internal/visualization"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch a dataset and render it as a chart",
		Long: `Fetch the dataset and render it as a scatter plot with a connecting line.

SVG and JSON go to stdout unless -o is given. HTML is written to a file
(a temp file by default) and opened in the browser; the page embeds every
category's view so the filter works offline. Output files must sit under
--root or the temp directory and are written owner-only. With --serve, a local
server keeps the chart up with a live category filter until Ctrl-C.

Examples:
  chartline render --source data.json > chart.svg
  chartline render --filter "Category A" --format json
  chartline render --format html -o chart.html
  chartline render --serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			formatFlag, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			serve, _ := cmd.Flags().GetBool("serve")
			noOpen, _ := cmd.Flags().GetBool("no-open")

			opt, err := chart.ParseFilterOption(filter)
			if err != nil {
				return err
			}
			format, err := visualization.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			uri, err := a.source(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sess := a.newSession()
			if _, err := sess.LoadDataset(ctx, uri); err != nil {
				return fmt.Errorf("load dataset: %w", err)
			}

			if serve {
				return runChartServer(ctx, cmd, a, sess, noOpen)
			}

			rc, err := sess.View(opt)
			if err != nil {
				return fmt.Errorf("render chart: %w", err)
			}
			content, err := renderContent(sess, rc, format, opt)
			if err != nil {
				return err
			}

			if output == "" && format == visualization.FormatHTML {
				output = filepath.Join(os.TempDir(), "chartline-chart.html")
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(content)
				return err
			}

			output, err = pathutil.WriteOutput(output, a.root, content, format.Extension())
			if errors.Is(err, pathutil.ErrInvalidOutputPath) {
				return &chart.InvalidArgumentError{Name: "output", Reason: err.Error()}
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", format, err)
			}
			if a.jsonOut {
				if err := printJSON(cmd.OutOrStdout(), map[string]any{
					"written":     output,
					"format":      format,
					"option":      opt,
					"point_count": rc.Count(chart.KindPoint),
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", output)
			}

			if format == visualization.FormatHTML && !noOpen {
				if err := visualization.OpenBrowser(output); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, output)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("source", "", "Dataset URI or file path (default from config)")
	cmd.Flags().String("filter", "All", "Category filter: All, Category A, Category B or Category C")
	cmd.Flags().String("format", "svg", "Output format: svg, json, or html")
	cmd.Flags().StringP("output", "o", "", "Output file path")
	cmd.Flags().Bool("serve", false, "Serve the chart with a live filter on a local HTTP server")
	cmd.Flags().Bool("no-open", false, "Don't open the browser for HTML output or --serve")

	return cmd
}

// renderContent encodes rc in format. HTML embeds every filter option's view
// from sess so the page can switch categories offline.
func renderContent(sess *session.Session, rc chart.RenderCommands, format visualization.Format, opt models.FilterOption) ([]byte, error) {
	switch format {
	case visualization.FormatJSON:
		data, err := json.MarshalIndent(visualization.RenderJSON(rc), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("render JSON: %w", err)
		}
		return append(data, '\n'), nil
	case visualization.FormatHTML:
		views, err := sess.Views()
		if err != nil {
			return nil, fmt.Errorf("render chart: %w", err)
		}
		data, err := visualization.RenderStaticHTML(views, opt)
		if err != nil {
			return nil, fmt.Errorf("render HTML: %w", err)
		}
		return data, nil
	default:
		return visualization.RenderSVG(rc), nil
	}
}

// runChartServer serves sess until ctx is cancelled.
func runChartServer(ctx context.Context, cmd *cobra.Command, a *app, sess *session.Session, noOpen bool) error {
	srv := visualization.NewServer(sess,
		visualization.WithListenAddr(a.cfg.Server.Addr),
		visualization.WithServerLogger(a.logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		url, err := waitForURL(gctx, srv, 3*time.Second)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Chart server running at %s\n", url)
		fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

		if !noOpen {
			if err := visualization.OpenBrowser(url); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// waitForURL polls until srv is listening.
func waitForURL(ctx context.Context, srv *visualization.Server, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if url := srv.URL(); url != "" {
			return url, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return "", errors.New("server failed to start")
}
