package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/twoliter/internal/app"
)

func (c *CLI) newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that Twoliter.lock still matches the project and the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			markers, _ := cmd.Flags().GetBool("markers")
			return c.app.Verify(cmd.Context(), app.VerifyOptions{
				ProjectPath: c.projectPath,
				Markers:     markers,
			})
		},
	}

	cmd.Flags().Bool("markers", false, "Also require the verification markers to match Twoliter.lock")

	return cmd
}
