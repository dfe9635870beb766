package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/browserfetch/cache"
	"github.com/use-agent/browserfetch/config"
	"github.com/use-agent/browserfetch/extract"
	"github.com/use-agent/browserfetch/fetcher"
	"github.com/use-agent/browserfetch/models"
)

func main() {
	cfg := config.Load()
	initLogger(cfg.Log)

	session := fetcher.NewSession(cfg.Browser)
	defer session.Shutdown()

	pageCache := cache.NewWithLimits(cfg.Cache.TTL, cfg.Cache.MaxEntries, cfg.Cache.MaxBytes)
	f := fetcher.New(session, pageCache, nil, cfg.Fetch)

	s := server.NewMCPServer(
		"browserfetch",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	fetchTool := mcp.NewTool("fetch",
		mcp.WithDescription("Fetch a web page with a headless browser and return its text content. Renders JavaScript, dismisses cookie banners and scrolls to trigger lazy-loaded content."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to fetch"),
		),
		mcp.WithNumber("wait",
			mcp.Description("Seconds to wait after page load for JavaScript rendering (default: 2.0, max: 30)"),
		),
		mcp.WithBoolean("scroll",
			mcp.Description("Auto-scroll the page to trigger lazy-loaded content (default: true)"),
		),
		mcp.WithNumber("max_chars",
			mcp.Description("Maximum number of characters to return (default: 40000, cap: 500000; 0 requests the cap)"),
		),
		mcp.WithBoolean("readability",
			mcp.Description("Extract only the main article content, removing boilerplate. Set false for homepages or index pages where everything should be kept (default: true)"),
		),
	)
	s.AddTool(fetchTool, handleFetch(f))

	screenshotTool := mcp.NewTool("screenshot",
		mcp.WithDescription("Render a web page with a headless browser and capture it as a PNG screenshot."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to capture"),
		),
		mcp.WithBoolean("full_page",
			mcp.Description("Capture the full scrollable page instead of just the viewport (default: false)"),
		),
	)
	s.AddTool(screenshotTool, handleScreenshot(f))

	slog.Info("browserfetch MCP server starting", "maxConcurrent", cfg.Browser.MaxConcurrent)

	// os.Exit skips deferred calls, so the browser is closed explicitly
	// on the error path. Shutdown is idempotent.
	if err := server.ServeStdio(s); err != nil {
		slog.Error("server error", "error", err)
		session.Shutdown()
		os.Exit(1)
	}
}

// handleFetch wraps Fetcher.Fetch as the fetch tool.
//
// Every failure comes back as a normal text result beginning with
// "Error: ", never a protocol error: the calling model reads the message
// and adjusts (tries another URL, reports the problem) instead of
// surfacing a stack trace to the user.
func handleFetch(f *fetcher.Fetcher) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultText("Error: url is required"), nil
		}

		wait := request.GetFloat("wait", models.DefaultWait)
		scroll := request.GetBool("scroll", true)
		maxChars := models.NormalizeMaxChars(request.GetInt("max_chars", models.DefaultMaxChars))
		readability := request.GetBool("readability", true)

		req := models.FetchRequest{
			URL:         url,
			Wait:        &wait,
			Scroll:      &scroll,
			MaxChars:    &maxChars,
			Readability: &readability,
		}

		res, err := f.Fetch(ctx, req)
		if err != nil {
			var fe *models.FetchError
			if errors.As(err, &fe) {
				return mcp.NewToolResultText("Error: " + fe.Message), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Error: unexpected failure fetching %s: %v", url, err)), nil
		}

		page := res.Page
		var body string
		if readability {
			body = extract.Readable(page.HTML, page.URL)
		} else {
			body = extract.FullText(page.HTML, page.URL)
		}
		return mcp.NewToolResultText(page.RenderText(url, body, maxChars)), nil
	}
}

// handleScreenshot wraps Fetcher.Screenshot as the screenshot tool.
// Unlike fetch, failures are real tool errors: there is no useful
// partial image to hand back.
func handleScreenshot(f *fetcher.Fetcher) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		fullPage := request.GetBool("full_page", false)

		png, err := f.Screenshot(ctx, models.ScreenshotRequest{URL: url, FullPage: fullPage})
		if err != nil {
			var fe *models.FetchError
			if errors.As(err, &fe) {
				return mcp.NewToolResultError(fe.Message), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Unexpected failure screenshotting %s: %v", url, err)), nil
		}

		encoded := base64.StdEncoding.EncodeToString(png)
		return mcp.NewToolResultImage(fmt.Sprintf("Screenshot of %s", url), encoded, "image/png"), nil
	}
}

// initLogger configures slog on stderr; stdout carries the MCP protocol.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
