package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newKeywordsCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Keyword vector index tooling",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "index <file>",
			Short: "Embed the keywords in file (one per line) and store them",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := s.newApp()
				if err != nil {
					return err
				}
				n, err := a.KeywordsIndex(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				log.Info().Int("keywords", n).Str("collection", s.cfg.QdrantCollection).Msg("keywords indexed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "generate",
			Short: "Write one labeled CSV file per configured query",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := s.newApp()
				if err != nil {
					return err
				}
				counts, err := a.KeywordsGenerate(cmd.Context())
				if err != nil {
					return err
				}
				for query, n := range counts {
					log.Info().Str("query", query).Int("rows", n).Msg("label file written")
				}
				return nil
			},
		},
	)
	return cmd
}
