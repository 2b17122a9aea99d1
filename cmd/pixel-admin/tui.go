package main

import (
	"context"

	"github.com/spf13/cobra"

	"pixel-admin/internal/logging"
	"pixel-admin/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and delete pixels interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

func runTUI(ctx context.Context) error {
	closer, err := logging.File(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	deps := tui.Deps{
		Store:      s.store,
		Fetcher:    s.client,
		Controller: s.ctrl,
		Locale:     locale(),
	}
	if s.journal != nil {
		deps.Journal = s.journal
	}
	return tui.Run(deps)
}
