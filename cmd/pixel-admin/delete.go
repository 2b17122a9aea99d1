package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pixel-admin/internal/deleter"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one pixel: optionally export its data, deprovision, then purge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		save, _ := cmd.Flags().GetBool("save")
		yes, _ := cmd.Flags().GetBool("yes")
		id := args[0]
		ctx := context.Background()

		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.store.Load(ctx, s.client); err != nil {
			return err
		}
		name := id
		if p, ok := s.store.Get(id); ok {
			name = p.ClientName
		} else {
			log.Warn().Str("pixel_id", id).Msg("pixel not in current listing")
		}

		mode := deleter.DeleteOnly
		if save {
			mode = deleter.SaveAndDelete
		}
		if !yes && !confirm(os.Stdin, os.Stdout, fmt.Sprintf("Delete pixel %q (%s)?", name, mode)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if _, err := s.ctrl.Begin(id); err != nil {
			return err
		}
		progress := make(chan deleter.Progress)
		done := make(chan error, 1)
		go func() {
			done <- s.ctrl.Run(ctx, mode, progress)
			close(progress)
		}()
		for p := range progress {
			if msg := p.Phase.Message(); msg != "" {
				fmt.Println(msg)
			}
		}
		if err := <-done; err != nil {
			return err
		}
		if att, ok := s.ctrl.Current(); ok && att.Export != "" {
			fmt.Printf("Client data saved to %s\n", att.Export)
		}
		return s.ctrl.Dismiss()
	},
}

var bulkDeleteCmd = &cobra.Command{
	Use:   "bulk-delete <id>...",
	Short: "Schedule several pixels for deletion in one request",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		ctx := context.Background()

		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.store.Load(ctx, s.client); err != nil {
			return err
		}
		if !yes && !confirm(os.Stdin, os.Stdout, fmt.Sprintf("Delete %d pixel(s): %s?", len(args), strings.Join(args, ", "))) {
			fmt.Println("Cancelled.")
			return nil
		}
		if err := s.ctrl.BulkDelete(ctx, args); err != nil {
			return err
		}
		fmt.Printf("Scheduled %d pixel(s) for deletion.\n", len(args))
		return nil
	},
}

func init() {
	deleteCmd.Flags().Bool("save", false, "export client data before deleting")
	deleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	bulkDeleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}
