package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/openkraft/headeraudit/internal/adapters/outbound/scanner"
	"github.com/openkraft/headeraudit/internal/domain"
	"github.com/openkraft/headeraudit/internal/domain/classify"
)

// registerTools registers all headeraudit MCP tools on the given server.
func registerTools(s *server.MCPServer, cfg domain.AuditConfig, log *zap.Logger) {
	// 1. headeraudit_classify
	s.AddTool(
		mcplib.NewTool("headeraudit_classify",
			mcplib.WithDescription("Returns the header variant a page should render, given its declared template and raw source"),
			mcplib.WithString("template",
				mcplib.Required(),
				mcplib.Description("Declared template: FULL or BLACK"),
			),
			mcplib.WithString("source", mcplib.Description("Raw page markup")),
			mcplib.WithString("file", mcplib.Description("Path of a raw-source file, relative to the source root")),
		),
		handleClassify(cfg),
	)

	// 2. headeraudit_variants
	s.AddTool(
		mcplib.NewTool("headeraudit_variants",
			mcplib.WithDescription("Lists the rendered header marker tokens and their report labels"),
		),
		handleVariants(),
	)

	// 3. headeraudit_locate_source
	s.AddTool(
		mcplib.NewTool("headeraudit_locate_source",
			mcplib.WithDescription("Finds the raw-source file for a page ID under the source root"),
			mcplib.WithString("id",
				mcplib.Required(),
				mcplib.Description("Page identifier from the manifest"),
			),
		),
		handleLocateSource(cfg.Source, log),
	)
}

type classifyResult struct {
	Template      domain.DeclaredTemplate `json:"template"`
	HasHeader     bool                    `json:"has_header"`
	Expected      domain.Variant          `json:"expected,omitempty"`
	ExpectedLabel string                  `json:"expected_label,omitempty"`
	NoExpectation bool                    `json:"no_expectation,omitempty"`
}

func handleClassify(cfg domain.AuditConfig) server.ToolHandlerFunc {
	c := classify.FromConfig(cfg.Classify)
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		template, err := request.RequireString("template")
		if err != nil {
			return errorResult("template parameter is required"), nil
		}
		args := request.GetArguments()
		raw, _ := args["source"].(string)
		file, _ := args["file"].(string)

		if raw == "" && file != "" {
			data, err := os.ReadFile(filepath.Join(cfg.Source.Root, filepath.Clean("/"+file)))
			if err != nil {
				return errorResult(fmt.Sprintf("reading %s: %v", file, err)), nil
			}
			raw = string(data)
		}
		if raw == "" {
			return errorResult("one of source or file is required"), nil
		}

		tpl := domain.ParseDeclaredTemplate(template)
		res := classifyResult{Template: tpl, HasHeader: c.HasLeadingHeader(raw)}
		if v, ok := c.Expected(tpl, raw); ok {
			res.Expected = v
			res.ExpectedLabel = v.Label()
		} else {
			res.NoExpectation = true
		}
		return jsonResult(res)
	}
}

type variantInfo struct {
	Token domain.Variant `json:"token"`
	Label string         `json:"label"`
}

func handleVariants() server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		out := make([]variantInfo, 0, len(domain.KnownVariants))
		for _, v := range domain.KnownVariants {
			out = append(out, variantInfo{Token: v, Label: v.Label()})
		}
		return jsonResult(out)
	}
}

type locateResult struct {
	ID       string   `json:"id"`
	Selected string   `json:"selected"`
	Matches  []string `json:"matches"`
}

// handleLocateSource re-indexes the source root on every call so that files
// exported while the server runs are found.
func handleLocateSource(cfg domain.SourceConfig, log *zap.Logger) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return errorResult("id parameter is required"), nil
		}
		sources := scanner.FromConfig(cfg, log)

		doc, err := sources.Lookup(id)
		switch {
		case errors.Is(err, domain.ErrSourceNotFound):
			return errorResult(fmt.Sprintf("no source file matches %q", id)), nil
		case err != nil:
			return errorResult(err.Error()), nil
		}

		matches, err := sources.Matches(id)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(locateResult{ID: id, Selected: doc.Path, Matches: matches})
	}
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns an error content result.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
