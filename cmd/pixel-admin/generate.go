package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pixel-admin/internal/provision"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Provision a new pixel for a client",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientName, _ := cmd.Flags().GetString("client")
		website, _ := cmd.Flags().GetString("website")

		res, err := provision.Request(context.Background(), newClient(), clientName, website)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(res)
		}
		fmt.Printf("Pixel generated for %s (%s)\n\n%s\n", res.Client, res.Website, res.PixelSnippet)
		if res.SheetURL != "" {
			fmt.Printf("\nSheet: %s\n", res.SheetURL)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().String("client", "", "client name (letters, numbers, underscores)")
	generateCmd.Flags().String("website", "", "client website; https:// is added when no scheme is given")
}
