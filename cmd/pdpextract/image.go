package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImageCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Query-intent container image tooling",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Verify the container engine is reachable",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := s.newApp()
				if err != nil {
					return err
				}
				v, err := a.ImageCheck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Docker %s\n", v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "build",
			Short: "Build the image from the configured context directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := s.newApp()
				if err != nil {
					return err
				}
				return a.ImageBuild(cmd.Context(), cmd.OutOrStdout())
			},
		},
	)
	return cmd
}
