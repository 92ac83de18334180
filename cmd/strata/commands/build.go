package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stratabuild/strata/internal/adapters/config"
	"github.com/stratabuild/strata/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [context]",
		Short: "Build an image from a buildfile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextDir := "."
			if len(args) == 1 {
				contextDir = args[0]
			}
			if abs, err := filepath.Abs(contextDir); err == nil {
				contextDir = abs
			}

			file, _ := cmd.Flags().GetString("file")
			output, _ := cmd.Flags().GetString("output")
			noCache, _ := cmd.Flags().GetBool("no-cache")

			return c.app.Build(cmd.Context(), app.BuildRequest{
				ContextDir: contextDir,
				File:       file,
				Output:     output,
				NoCache:    noCache,
			})
		},
	}
	cmd.Flags().StringP("file", "f", config.DefaultFilename, "Buildfile name within the context directory")
	cmd.Flags().StringP("output", "o", "", "Output layout directory (overrides the buildfile)")
	cmd.Flags().Bool("no-cache", false, "Bypass the layer cache and rebuild every layer")
	return cmd
}
