package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/twoliter/internal/app"
)

func (c *CLI) newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Verify Twoliter.lock and extract the locked kits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			arch, _ := cmd.Flags().GetString("arch")
			sdkOnly, _ := cmd.Flags().GetBool("sdk-only")

			return c.app.Fetch(cmd.Context(), app.FetchOptions{
				ProjectPath: c.projectPath,
				Arch:        arch,
				SDKOnly:     sdkOnly,
			})
		},
	}

	cmd.Flags().StringP("arch", "a", "", "Architecture to extract kits for (x86_64, aarch64)")
	cmd.Flags().Bool("sdk-only", false, "Verify and mark only the SDK, without extracting kits")

	return cmd
}
