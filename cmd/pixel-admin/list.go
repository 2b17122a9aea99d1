package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pixel-admin/internal/listing"
	"pixel-admin/internal/model"
	"pixel-admin/pkg/utils"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pixels",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		industry, _ := cmd.Flags().GetString("industry")
		sortFlag, _ := cmd.Flags().GetString("sort")

		key, err := listing.ParseSortKey(sortFlag)
		if err != nil {
			return err
		}

		store := listing.NewStore()
		if err := store.Load(context.Background(), newClient()); err != nil {
			return err
		}
		rows := store.View(listing.Query{Search: search, Industry: industry, Sort: key, Locale: locale()})

		if jsonOutput {
			return printJSON(rows)
		}
		printPixelTable(rows, store.Stats())
		return nil
	},
}

func init() {
	listCmd.Flags().String("search", "", "match client name or website (case-insensitive)")
	listCmd.Flags().String("industry", listing.AllIndustries, "industry filter")
	listCmd.Flags().String("sort", string(listing.SortByDate), "sort by date, name or events")
}

func printPixelTable(rows []model.Pixel, st listing.Stats) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCLIENT\tWEBSITE\tINDUSTRY\tEVENTS\tVISITORS\tCREATED\tSTATUS")
	for _, p := range rows {
		state := ""
		if p.ScheduledForDeletion() {
			state = "scheduled for deletion"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.ClientName, p.Website, p.IndustryLabel(),
			utils.FormatCount(p.EventCount), utils.FormatCount(p.VisitorCount),
			utils.FormatDate(p.Created()), state)
	}
	w.Flush()
	fmt.Printf("\n%d shown of %d pixels, %s events, %s visitors\n",
		len(rows), st.Pixels, utils.FormatCount(st.Events), utils.FormatCount(st.Visitors))
}
