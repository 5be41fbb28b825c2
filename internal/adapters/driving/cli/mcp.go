package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/mcp"
	"github.com/custodia-labs/grimoire/internal/logger"
)

var (
	mcpPort int
	mcpHost string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the docs and validator to AI assistants",
	Long: `Model Context Protocol integration. Assistants can search the indexed
documentation, look up functions, validate scripts and ask grounded questions.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server. It speaks JSON-RPC over stdio unless --port is set,
in which case it serves the streamable HTTP transport on --host:--port.

Tools:     search_docs, lookup_function, validate_dsl, ask_docs
Resources: grimoire://stats
           grimoire://functions/{name}
           grimoire://documents/{path}

ask_docs needs an LLM provider. Run "grimoire mcp tools" to see which tools
the current configuration enables.

Examples:
  grimoire mcp serve
  grimoire mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "grimoire": {"command": "/path/to/grimoire", "args": ["mcp", "serve"]}
    }
  }`,
	RunE: runMCPServe,
}

var mcpToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show the tools the MCP server would offer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ports := mcpPorts()
		if err := ports.Validate(); err != nil {
			return err
		}
		cmd.Println(mcp.Instructions(ports))
		return nil
	},
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 serves over stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "127.0.0.1", "HTTP listen address")
	mcpCmd.AddCommand(mcpServeCmd, mcpToolsCmd)
	rootCmd.AddCommand(mcpCmd)
}

func mcpPorts() *mcp.Ports {
	return &mcp.Ports{
		Retrieval:  retrievalService,
		Validation: validationService,
		Correction: correctionService,
		Function:   functionService,
		Answer:     answerService,
		Stats:      statsService,
	}
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(mcpPorts())
	if err != nil {
		return err
	}

	if mcpPort <= 0 {
		logger.Debug("MCP server on stdio")
		return server.Run(cmd.Context())
	}
	if mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	cmd.PrintErrf("MCP server listening on http://%s/\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
