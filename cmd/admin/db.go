package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"worldedit.ai/internal/persistence/history"
	"worldedit.ai/internal/persistence/indexdb"
)

func openIndex(cmd *cobra.Command, worldID string) (*indexdb.SQLiteIndex, error) {
	dataDir, _ := cmd.Flags().GetString("data")
	path := filepath.Join(dataDir, "worlds", worldID, "index", "worldedit.sqlite")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	return indexdb.OpenSQLite(path)
}

var historyCmd = &cobra.Command{
	Use:   "history <actor>",
	Short: "List an actor's undo/redo files and depths",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tune, err := loadTuning(cmd)
		if err != nil {
			return err
		}
		dataDir, _ := cmd.Flags().GetString("data")
		files, err := history.ListFiles(filepath.Join(dataDir, tune.HistoryDir), tune.WorldID, args[0])
		if err != nil {
			return err
		}

		if idx, err := openIndex(cmd, tune.WorldID); err == nil {
			d, err := idx.Load(cmd.Context(), tune.WorldID, args[0])
			_ = idx.Close()
			if err != nil {
				return err
			}
			fmt.Printf("depths: undo=%d redo=%d\n", d.Undo, d.Redo)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DIR\tDEPTH\tX\tY\tW\tH\tBYTES")
		for _, f := range files {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n", f.Direction, f.Depth, f.Bounds.X, f.Bounds.Y, f.Bounds.W, f.Bounds.H, f.Size)
		}
		return tw.Flush()
	},
}

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Show or set undo/redo depths stored in the sqlite index",
}

var countersShowCmd = &cobra.Command{
	Use:   "show [actor]",
	Short: "Print counters for one actor or every actor of the world",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tune, err := loadTuning(cmd)
		if err != nil {
			return err
		}
		idx, err := openIndex(cmd, tune.WorldID)
		if err != nil {
			return err
		}
		defer idx.Close()

		ctx := cmd.Context()
		if len(args) == 1 {
			d, err := idx.Load(ctx, tune.WorldID, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s undo=%d redo=%d\n", args[0], d.Undo, d.Redo)
			return nil
		}
		rows, err := idx.ListCounters(ctx, tune.WorldID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ACTOR\tUNDO\tREDO\tUPDATED")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.ActorID, r.Depths.Undo, r.Depths.Redo, r.UpdatedAt)
		}
		return tw.Flush()
	},
}

var countersSetCmd = &cobra.Command{
	Use:   "set <actor> <undo> <redo>",
	Short: "Overwrite an actor's counters (the server must be stopped)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !history.ValidID(args[0]) {
			return fmt.Errorf("invalid actor id %q", args[0])
		}
		undo, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("undo depth: %w", err)
		}
		redo, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("redo depth: %w", err)
		}
		tune, err := loadTuning(cmd)
		if err != nil {
			return err
		}
		idx, err := openIndex(cmd, tune.WorldID)
		if err != nil {
			return err
		}
		defer idx.Close()
		return idx.Save(context.Background(), tune.WorldID, args[0], history.Depths{Undo: undo, Redo: redo})
	},
}

func init() {
	countersCmd.AddCommand(countersShowCmd, countersSetCmd)
}
