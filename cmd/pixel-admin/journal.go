package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recorded deletion steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		partial, _ := cmd.Flags().GetBool("partial")
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := context.Background()

		j, err := openJournal()
		if err != nil {
			return err
		}
		if j == nil {
			return errors.New("journal is disabled (journal_path is empty)")
		}
		defer j.Close()

		if partial {
			ids, err := j.Partial(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(ids)
			}
			if len(ids) == 0 {
				fmt.Println("No partially deleted pixels.")
				return nil
			}
			fmt.Println("Removed from SimpleAudience but not purged from the database:")
			for _, id := range ids {
				fmt.Printf("  %s\n", id)
			}
			return nil
		}

		entries, err := j.Recent(ctx, limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(entries)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tATTEMPT\tPIXEL\tMODE\tSTEP\tRESULT")
		for _, e := range entries {
			result := "ok"
			if !e.OK {
				result = "failed: " + e.Err
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.At.Local().Format("2006-01-02 15:04:05"), e.AttemptID, e.PixelID, e.Mode, e.Step, result)
		}
		return w.Flush()
	},
}

func init() {
	journalCmd.Flags().Bool("partial", false, "list pixels deprovisioned but not purged")
	journalCmd.Flags().Int("limit", 50, "maximum entries to show (0 for all)")
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
