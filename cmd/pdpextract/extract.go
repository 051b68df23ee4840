package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newExtractCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extract section records from every page in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.newApp()
			if err != nil {
				return err
			}
			res, err := a.Extract(cmd.Context())
			ev := log.Info()
			if err != nil {
				ev = log.Error().Err(err)
			}
			ev.Int("documents", res.Documents).
				Int("records", res.Records).
				Int("failed", len(res.Failures)).
				Int("unsent", len(res.Unsent)).
				Str("manifest", res.ManifestPath).
				Msg("extraction finished")
			return err
		},
	}
}

func newForwardCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "forward",
		Short: "Send record files to the indexing endpoint and write an execution report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.newApp()
			if err != nil {
				return err
			}
			res, err := a.Forward(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().
				Int("sent", res.Sent).
				Int("failed", len(res.Failures)).
				Dur("elapsed", res.Elapsed()).
				Str("report", res.ReportPath).
				Msg("forwarding finished")
			return nil
		},
	}
}
