package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/openkraft/headeraudit/internal/domain"
)

// NewHeaderAuditMCPServer creates an MCP server exposing the offline parts of
// the audit: classification, the variant table and source lookup. Nothing
// here touches the network or a browser.
func NewHeaderAuditMCPServer(cfg domain.AuditConfig, log *zap.Logger) *server.MCPServer {
	if log == nil {
		log = zap.NewNop()
	}
	s := server.NewMCPServer(
		"headeraudit",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, cfg, log)
	registerResources(s, cfg)

	return s
}
