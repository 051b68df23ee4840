package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSplitCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "split",
		Short: "Shuffle labeled CSV files into training, validation and test sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.newApp()
			if err != nil {
				return err
			}
			res, err := a.Split()
			if err != nil {
				return err
			}
			log.Info().
				Strs("inputs", res.Inputs).
				Int("training", res.Training).
				Int("validation", res.Validation).
				Int("test", res.Test).
				Msg("dataset split")
			return nil
		},
	}
}

func newAuditCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report terms duplicated across the split files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.newApp()
			if err != nil {
				return err
			}
			_, err = a.Audit(cmd.OutOrStdout())
			return err
		},
	}
}
