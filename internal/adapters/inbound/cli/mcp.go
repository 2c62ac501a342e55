package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpadapter "github.com/openkraft/headeraudit/internal/adapters/inbound/mcp"
	"github.com/openkraft/headeraudit/internal/adapters/outbound/config"
)

func newMCPCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the headeraudit MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(root))
	return cmd
}

func newMCPServeCmd(root *rootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start headeraudit MCP server (stdio)",
		Long:  "Start the headeraudit MCP server using stdio transport. Tools classify raw sources, list header variants and locate the source file of a page.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New().Load(configPath)
			if err != nil {
				return err
			}
			s := mcpadapter.NewHeaderAuditMCPServer(cfg, root.logger())
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", ".", "Config file, or directory containing "+config.FileName)

	return cmd
}
