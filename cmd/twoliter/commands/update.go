package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/twoliter/internal/app"
)

func (c *CLI) newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Resolve every kit and the SDK again and rewrite Twoliter.lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Update(cmd.Context(), app.UpdateOptions{ProjectPath: c.projectPath})
		},
	}
}
