package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/chartline/internal/chart"
	"github.com/nvandessel/chartline/internal/models"
	"github.com/nvandessel/chartline/internal/pathutil"
	"github.com/nvandessel/chartline/internal/ratelimit"
	"github.com/nvandessel/chartline/internal/sanitize"
	"github.com/nvandessel/chartline/internal/visualization"
)

// Tool names.
const (
	ToolChartLoad    = "chart_load"
	ToolChartDomains = "chart_domains"
	ToolChartFilter  = "chart_filter"
	ToolChartRender  = "chart_render"
	ToolChartPosts   = "chart_posts"
	ToolSocialLogin  = "social_login"
	ToolSocialFeed   = "social_feed"
)

// CurrentChartURI is the resource holding the unfiltered chart as SVG.
const CurrentChartURI = "chartline://chart/current.svg"

// registerTools registers all chartline MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolChartLoad,
		Description: "Fetch a dataset of {xValue, yValue, category} points and make it the session's current dataset",
	}, s.handleChartLoad)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolChartDomains,
		Description: "Get the x and y scale domains ([0, max]) of the current dataset",
	}, s.handleChartDomains)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolChartFilter,
		Description: "Select the points of the current dataset that belong to a category",
	}, s.handleChartFilter)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolChartRender,
		Description: "Render the current dataset as a scatter plot with a connecting line, in SVG, JSON draw commands or a standalone HTML page",
	}, s.handleChartRender)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolChartPosts,
		Description: "Generate the labels Post 1 through Post N",
	}, s.handleChartPosts)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolSocialLogin,
		Description: "Check a username and password against the social directory",
	}, s.handleSocialLogin)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolSocialFeed,
		Description: "Fetch a user's posts from the social directory",
	}, s.handleSocialFeed)
}

// registerResources registers MCP resources.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         CurrentChartURI,
		Name:        "chartline-current-chart",
		Description: "The current dataset rendered as an SVG scatter plot, unfiltered.",
		MIMEType:    "image/svg+xml",
	}, s.handleCurrentChartResource)
}

// handleCurrentChartResource renders the unfiltered view, or explains how to
// load a dataset when there is none.
func (s *Server) handleCurrentChartResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	rc, err := s.session.View(models.FilterAll)
	if errors.Is(err, chart.ErrEmptyDataset) {
		return &sdk.ReadResourceResult{
			Contents: []*sdk.ResourceContents{{
				URI:      CurrentChartURI,
				MIMEType: "text/plain",
				Text:     "No data to chart yet. Load a dataset with `chart_load`.\n",
			}},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("render current chart: %w", err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{{
			URI:      CurrentChartURI,
			MIMEType: "image/svg+xml",
			Text:     string(visualization.RenderSVG(rc)),
		}},
	}, nil
}

// handleChartLoad implements the chart_load tool.
func (s *Server) handleChartLoad(ctx context.Context, req *sdk.CallToolRequest, args ChartLoadInput) (_ *sdk.CallToolResult, _ ChartLoadOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolChartLoad, start, retErr, map[string]any{"uri": args.URI})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolChartLoad); err != nil {
		return nil, ChartLoadOutput{}, err
	}

	uri := strings.TrimSpace(args.URI)
	if uri == "" {
		uri = s.sourceURI
	}
	if uri == "" {
		return nil, ChartLoadOutput{}, &chart.InvalidArgumentError{Name: "uri", Reason: "no uri given and no default source configured"}
	}

	points, err := s.session.LoadDataset(ctx, uri)
	if err != nil {
		return nil, ChartLoadOutput{}, fmt.Errorf("load dataset: %w", err)
	}

	out := ChartLoadOutput{Source: uri, PointCount: len(points)}
	x, y, err := s.session.Domains()
	switch {
	case errors.Is(err, chart.ErrEmptyDataset):
		out.Message = "Loaded an empty dataset; there is nothing to chart."
	case err != nil:
		return nil, ChartLoadOutput{}, err
	default:
		out.XDomain, out.YDomain = &x, &y
		out.Message = fmt.Sprintf("Loaded %d points.", len(points))
	}
	return nil, out, nil
}

// handleChartDomains implements the chart_domains tool.
func (s *Server) handleChartDomains(ctx context.Context, req *sdk.CallToolRequest, args ChartDomainsInput) (_ *sdk.CallToolResult, _ ChartDomainsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolChartDomains, start, retErr, map[string]any{})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolChartDomains); err != nil {
		return nil, ChartDomainsOutput{}, err
	}

	x, y, err := s.session.Domains()
	if err != nil {
		return nil, ChartDomainsOutput{}, err
	}
	return nil, ChartDomainsOutput{XDomain: x, YDomain: y}, nil
}

// handleChartFilter implements the chart_filter tool.
func (s *Server) handleChartFilter(ctx context.Context, req *sdk.CallToolRequest, args ChartFilterInput) (_ *sdk.CallToolResult, _ ChartFilterOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolChartFilter, start, retErr, map[string]any{"option": args.Option})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolChartFilter); err != nil {
		return nil, ChartFilterOutput{}, err
	}

	opt, err := chart.ParseFilterOption(args.Option)
	if err != nil {
		return nil, ChartFilterOutput{}, err
	}
	points, err := s.session.Filter(opt)
	if err != nil {
		return nil, ChartFilterOutput{}, err
	}
	for i := range points {
		points[i].Category = sanitize.Label(points[i].Category)
	}

	return nil, ChartFilterOutput{Option: string(opt), Points: points, Count: len(points)}, nil
}

// handleChartRender implements the chart_render tool.
func (s *Server) handleChartRender(ctx context.Context, req *sdk.CallToolRequest, args ChartRenderInput) (_ *sdk.CallToolResult, _ ChartRenderOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolChartRender, start, retErr, map[string]any{
			"option": args.Option,
			"format": args.Format,
			"output": args.Output,
		})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolChartRender); err != nil {
		return nil, ChartRenderOutput{}, err
	}

	format, err := visualization.ParseFormat(args.Format)
	if err != nil {
		return nil, ChartRenderOutput{}, err
	}
	opt, err := chart.ParseFilterOption(args.Option)
	if err != nil {
		return nil, ChartRenderOutput{}, err
	}

	rc, err := s.session.View(opt)
	if err != nil {
		return nil, ChartRenderOutput{}, err
	}

	var (
		content []byte
		view    any
	)
	switch format {
	case visualization.FormatJSON:
		m := visualization.RenderJSON(rc)
		content, err = json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, ChartRenderOutput{}, fmt.Errorf("marshal view: %w", err)
		}
		view = m
	case visualization.FormatHTML:
		views, err := s.session.Views()
		if err != nil {
			return nil, ChartRenderOutput{}, err
		}
		for _, v := range views {
			if v.Option == opt {
				rc = v.Commands
			}
		}
		content, err = visualization.RenderStaticHTML(views, opt)
		if err != nil {
			return nil, ChartRenderOutput{}, fmt.Errorf("render HTML: %w", err)
		}
		view = string(content)
	default:
		content = visualization.RenderSVG(rc)
		view = string(content)
	}

	out := ChartRenderOutput{
		Option:     string(opt),
		Format:     string(format),
		PointCount: rc.Count(chart.KindPoint),
	}

	if args.Output == "" {
		out.View = view
		return nil, out, nil
	}

	path, err := s.writeOutput(args.Output, format, content)
	if err != nil {
		return nil, ChartRenderOutput{}, err
	}
	out.Written = path
	return nil, out, nil
}

// writeOutput validates a chart_render output path and writes content to it.
// Relative paths resolve against the project root.
func (s *Server) writeOutput(output string, format visualization.Format, content []byte) (string, error) {
	path, err := pathutil.WriteOutput(output, s.root, content, format.Extension())
	if errors.Is(err, pathutil.ErrInvalidOutputPath) {
		return "", &chart.InvalidArgumentError{Name: "output", Reason: err.Error()}
	}
	return path, err
}

// handleChartPosts implements the chart_posts tool.
func (s *Server) handleChartPosts(ctx context.Context, req *sdk.CallToolRequest, args ChartPostsInput) (_ *sdk.CallToolResult, _ ChartPostsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolChartPosts, start, retErr, map[string]any{"count": args.Count})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolChartPosts); err != nil {
		return nil, ChartPostsOutput{}, err
	}

	if args.Count > visualization.MaxPosts {
		return nil, ChartPostsOutput{}, &chart.InvalidArgumentError{
			Name:   "count",
			Reason: fmt.Sprintf("must be at most %d, got %d", visualization.MaxPosts, args.Count),
		}
	}
	seq, err := s.session.Posts(args.Count)
	if err != nil {
		return nil, ChartPostsOutput{}, err
	}

	posts := slices.Collect(seq)
	if posts == nil {
		posts = []string{}
	}
	return nil, ChartPostsOutput{Posts: posts, Count: len(posts)}, nil
}

// handleSocialLogin implements the social_login tool.
func (s *Server) handleSocialLogin(ctx context.Context, req *sdk.CallToolRequest, args SocialLoginInput) (_ *sdk.CallToolResult, _ SocialLoginOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolSocialLogin, start, retErr, map[string]any{
			"username": args.Username,
			"password": args.Password,
		})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolSocialLogin); err != nil {
		return nil, SocialLoginOutput{}, err
	}

	username := strings.TrimSpace(args.Username)
	if username == "" {
		return nil, SocialLoginOutput{}, &chart.InvalidArgumentError{Name: "username", Reason: "is required"}
	}

	user, err := s.directory.Login(ctx, username, args.Password)
	if err != nil {
		return nil, SocialLoginOutput{}, fmt.Errorf("login: %w", err)
	}
	user.Username = sanitize.Label(user.Username)
	return nil, SocialLoginOutput{
		User:    user,
		Message: fmt.Sprintf("Logged in as %s.", user.Username),
	}, nil
}

// handleSocialFeed implements the social_feed tool.
func (s *Server) handleSocialFeed(ctx context.Context, req *sdk.CallToolRequest, args SocialFeedInput) (_ *sdk.CallToolResult, _ SocialFeedOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolSocialFeed, start, retErr, map[string]any{"username": args.Username})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolSocialFeed); err != nil {
		return nil, SocialFeedOutput{}, err
	}

	username := strings.TrimSpace(args.Username)
	if username == "" {
		return nil, SocialFeedOutput{}, &chart.InvalidArgumentError{Name: "username", Reason: "is required"}
	}

	posts, err := s.directory.FetchFeed(ctx, username)
	if err != nil {
		return nil, SocialFeedOutput{}, fmt.Errorf("fetch feed: %w", err)
	}
	for i := range posts {
		posts[i].Title = sanitize.Label(posts[i].Title)
		posts[i].Content = sanitize.Text(posts[i].Content)
	}
	return nil, SocialFeedOutput{Posts: posts, Count: len(posts)}, nil
}
