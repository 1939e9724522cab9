package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/MeKo-Tech/stylizer/internal/history"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the transform history database",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent transforms",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one transform",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete one transform record",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)

	historyListCmd.Flags().String("style", "", "Only show transforms of this style")
	historyListCmd.Flags().Bool("failed", false, "Only show failed transforms")
	historyListCmd.Flags().Int("limit", history.DefaultListLimit, "Maximum number of records")
	historyShowCmd.Flags().String("thumbnail", "", "Write the stored thumbnail PNG to this path")
}

func requireHistory() (*history.Store, error) {
	if viper.GetString("history") == "" {
		return nil, fmt.Errorf("--history is required")
	}
	return openHistory()
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	f := history.Filter{}
	if f.Style, err = cmd.Flags().GetString("style"); err != nil {
		return err
	}
	if f.Style != "" {
		if reg, err := newRegistry(); err == nil {
			if st, ok := reg.Lookup(f.Style); ok {
				f.Style = st.Name
			}
		}
	}
	if failed, _ := cmd.Flags().GetBool("failed"); failed {
		f.Status = history.StatusFailed
	}
	if f.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}

	ctx := context.Background()
	records, err := store.List(ctx, f)
	if err != nil {
		return err
	}
	total, err := store.Count(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTYLE\tSTATUS\tSIZE\tELAPSED\tWHEN\tINPUT")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%s\t%s\t%s\n",
			rec.ID, rec.Style, rec.Status, rec.Width, rec.Height, rec.Elapsed, humanize.Time(rec.CreatedAt), rec.Input)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s of %s records\n", humanize.Comma(int64(len(records))), humanize.Comma(int64(total)))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	rec, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", rec.ID)
	fmt.Fprintf(out, "Style:    %s\n", rec.Style)
	fmt.Fprintf(out, "Status:   %s\n", rec.Status)
	fmt.Fprintf(out, "Input:    %s\n", rec.Input)
	if rec.Output != "" {
		fmt.Fprintf(out, "Output:   %s\n", rec.Output)
		fmt.Fprintf(out, "Size:     %dx%d (%s pixels)\n", rec.Width, rec.Height, humanize.Comma(int64(rec.Width*rec.Height)))
	}
	fmt.Fprintf(out, "Elapsed:  %s\n", rec.Elapsed)
	fmt.Fprintf(out, "Created:  %s (%s)\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(rec.CreatedAt))
	if rec.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", rec.Error)
	}

	thumbPath, _ := cmd.Flags().GetString("thumbnail")
	if thumbPath == "" {
		return nil
	}
	data, err := store.Thumbnail(ctx, rec.ID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(thumbPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	fmt.Fprintf(out, "Thumbnail: %s (%s)\n", thumbPath, humanize.Bytes(uint64(len(data))))
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}
