package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/patchkit/pkg/patchkit/config"
	"github.com/jamesainslie/patchkit/pkg/patchkit/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent patch and reconcile runs",
	Long: `History lists the most recent runs recorded by generate and reconcile,
newest first.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit, "maximum runs to show")

	_ = viper.BindPFlag("history.limit", historyCmd.Flags().Lookup("limit"))

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(viper.GetString("history.path"))
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(viper.GetInt("history.limit"))
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOPERATION\tSTAGED\tDELETED\tBYTES\tELAPSED")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			humanize.Time(rec.Time),
			rec.Operation,
			rec.FilesStaged,
			rec.FilesDeleted,
			humanize.IBytes(rec.BytesStaged),
			rec.Elapsed.Round(time.Millisecond),
		)
	}
	return w.Flush()
}
