package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/openkraft/headeraudit/internal/domain"
)

const configURI = "headeraudit://config"

// registerResources registers the effective configuration as a resource.
func registerResources(s *server.MCPServer, cfg domain.AuditConfig) {
	s.AddResource(
		mcplib.NewResource(
			configURI,
			"Audit Configuration",
			mcplib.WithResourceDescription("Effective headeraudit configuration (defaults merged with .headeraudit.yaml)"),
			mcplib.WithMIMEType("application/json"),
		),
		handleConfigResource(cfg),
	)
}

func handleConfigResource(cfg domain.AuditConfig) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling config: %w", err)
		}
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      configURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
