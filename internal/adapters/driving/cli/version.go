package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/grimoire/internal/adapters/driving/mcp"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version number",
	Long:        `Print the grimoire version and the version of its MCP server.`,
	Annotations: map[string]string{skipInitAnnotation: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("grimoire version %s\n", version)
		cmd.Printf("  mcp server %s\n", mcp.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
