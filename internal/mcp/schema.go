// Package mcp provides an MCP (Model Context Protocol) server for chartline.
package mcp

import "github.com/nvandessel/chartline/internal/models"

// ChartLoadInput defines the input for chart_load tool.
type ChartLoadInput struct {
	URI string `json:"uri,omitempty" jsonschema:"Dataset URI (http, https or file). Defaults to the configured source"`
}

// ChartLoadOutput defines the output for chart_load tool.
type ChartLoadOutput struct {
	Source     string              `json:"source" jsonschema:"URI the dataset was loaded from"`
	PointCount int                 `json:"point_count" jsonschema:"Number of data points loaded"`
	XDomain    *models.ScaleDomain `json:"x_domain,omitempty" jsonschema:"X scale domain, absent for an empty dataset"`
	YDomain    *models.ScaleDomain `json:"y_domain,omitempty" jsonschema:"Y scale domain, absent for an empty dataset"`
	Message    string              `json:"message" jsonschema:"Human-readable result message"`
}

// ChartDomainsInput defines the input for chart_domains tool.
type ChartDomainsInput struct{}

// ChartDomainsOutput defines the output for chart_domains tool.
type ChartDomainsOutput struct {
	XDomain models.ScaleDomain `json:"x_domain" jsonschema:"X scale domain [0, max x]"`
	YDomain models.ScaleDomain `json:"y_domain" jsonschema:"Y scale domain [0, max y]"`
}

// ChartFilterInput defines the input for chart_filter tool.
type ChartFilterInput struct {
	Option string `json:"option,omitempty" jsonschema:"One of All, Category A, Category B, Category C. Defaults to All"`
}

// ChartFilterOutput defines the output for chart_filter tool.
type ChartFilterOutput struct {
	Option string             `json:"option" jsonschema:"Filter that was applied"`
	Points []models.DataPoint `json:"points" jsonschema:"Matching data points in dataset order"`
	Count  int                `json:"count" jsonschema:"Number of matching points"`
}

// ChartRenderInput defines the input for chart_render tool.
type ChartRenderInput struct {
	Option string `json:"option,omitempty" jsonschema:"Filter to render. Defaults to All"`
	Format string `json:"format,omitempty" jsonschema:"Output format: svg, json or html. Defaults to svg"`
	Output string `json:"output,omitempty" jsonschema:"Optional file to write, under the project root or the temp dir"`
}

// ChartRenderOutput defines the output for chart_render tool.
type ChartRenderOutput struct {
	Option     string `json:"option" jsonschema:"Filter that was rendered"`
	Format     string `json:"format" jsonschema:"Format that was rendered"`
	View       any    `json:"view,omitempty" jsonschema:"Rendered chart, omitted when written to a file"`
	PointCount int    `json:"point_count" jsonschema:"Number of points drawn"`
	Written    string `json:"written,omitempty" jsonschema:"Absolute path of the written file"`
}

// ChartPostsInput defines the input for chart_posts tool.
type ChartPostsInput struct {
	Count int `json:"count" jsonschema:"Number of post labels to generate"`
}

// ChartPostsOutput defines the output for chart_posts tool.
type ChartPostsOutput struct {
	Posts []string `json:"posts" jsonschema:"Post labels, Post 1 through Post count"`
	Count int      `json:"count" jsonschema:"Number of labels"`
}

// SocialLoginInput defines the input for social_login tool.
type SocialLoginInput struct {
	Username string `json:"username" jsonschema:"Account name"`
	Password string `json:"password" jsonschema:"Account password"`
}

// SocialLoginOutput defines the output for social_login tool.
type SocialLoginOutput struct {
	User    models.User `json:"user" jsonschema:"Authenticated user"`
	Message string      `json:"message" jsonschema:"Human-readable result message"`
}

// SocialFeedInput defines the input for social_feed tool.
type SocialFeedInput struct {
	Username string `json:"username" jsonschema:"Account whose feed to fetch"`
}

// SocialFeedOutput defines the output for social_feed tool.
type SocialFeedOutput struct {
	Posts []models.Post `json:"posts" jsonschema:"Posts in publication order"`
	Count int           `json:"count" jsonschema:"Number of posts"`
}
