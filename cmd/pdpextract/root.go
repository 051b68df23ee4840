package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/pdpextract/internal/app"
)

// state is shared by the command tree. cfg is filled by flags, then
// overlaid with the config file and environment before a command runs.
type state struct {
	cfg      app.Config
	cfgFile  string
	envFiles []string
}

// newApp builds the application from the effective configuration.
func (s *state) newApp() (*app.App, error) {
	return app.New(s.cfg)
}

func newRootCmd() *cobra.Command {
	s := &state{cfg: app.DefaultConfig()}
	root := &cobra.Command{
		Use:   "pdpextract",
		Short: "Product page section extraction and search dataset tooling",
		Long: `pdpextract turns saved product detail pages into per-section JSON records
for an embedding search index, and carries the companion tooling:

  - forwarding record files to a managed indexing endpoint
  - keyword indexing and label file generation against a vector store
  - training/validation/test dataset splitting and duplicate audits
  - building the query-intent container image`,
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&s.cfgFile, "config", "", "YAML or JSON config file")
	pf.StringSliceVar(&s.envFiles, "env-file", []string{".env"}, "Dotenv files to load (existing environment wins)")
	app.BindFlags(pf, &s.cfg)

	root.AddCommand(
		newExtractCmd(s),
		newForwardCmd(s),
		newSplitCmd(s),
		newAuditCmd(s),
		newKeywordsCmd(s),
		newImageCmd(s),
		newVersionCmd(),
	)
	return root
}

// load applies dotenv files, the config file and environment overrides in
// that order, then sets the log level.
func (s *state) load(cmd *cobra.Command) error {
	set, err := app.LoadEnvFiles(s.envFiles...)
	if err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	flags := cmd.Flags()
	if s.cfgFile != "" {
		fc, err := app.LoadConfigFile(s.cfgFile)
		if err != nil {
			return fmt.Errorf("load config %s: %w", s.cfgFile, err)
		}
		app.ApplyFileConfig(&s.cfg, fc, flags)
	}
	app.ApplyEnvOverrides(&s.cfg, flags)

	if s.cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if len(set) > 0 {
		log.Debug().Strs("keys", set).Msg("loaded dotenv")
	}
	return nil
}
