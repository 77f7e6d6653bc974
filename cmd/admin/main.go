// Command admin inspects world edit data offline: snapshot files, undo/redo
// logs, sqlite counters and filter expressions.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"worldedit.ai/internal/expr"
	persistlog "worldedit.ai/internal/persistence/log"
	"worldedit.ai/internal/persistence/snapshot"
	"worldedit.ai/internal/sim/catalogs"
	"worldedit.ai/internal/sim/tuning"
	"worldedit.ai/internal/sim/world/regions"
)

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "World edit administration tool",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("data", "./data", "runtime data directory")
	rootCmd.PersistentFlags().String("configs", "./configs", "config directory")
	rootCmd.PersistentFlags().String("world", "", "world id (default: world_id from <configs>/worldedit.yaml)")

	inspectCmd.Flags().Bool("legacy", false, "decode tiles without the coating byte")
	inspectCmd.Flags().Int("top", 10, "number of most common tile types to print")
	auditCmd.Flags().String("actor", "", "only print entries for this actor")

	rootCmd.AddCommand(inspectCmd, filterCmd, auditCmd, historyCmd, countersCmd, saveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadTuning(cmd *cobra.Command) (tuning.Tuning, error) {
	configDir, _ := cmd.Flags().GetString("configs")
	tune, err := tuning.Load(filepath.Join(configDir, "worldedit.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return tune, err
		}
		tune = tuning.Defaults()
	}
	if v, _ := cmd.Flags().GetString("world"); v != "" {
		tune.WorldID = v
	}
	return tune, nil
}

func loadCatalogs(cmd *cobra.Command) (*catalogs.Catalogs, error) {
	configDir, _ := cmd.Flags().GetString("configs")
	return catalogs.Load(filepath.Join(configDir, "catalogs"))
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the bounds, object counts and tile mix of a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cats, err := loadCatalogs(cmd)
		if err != nil {
			return err
		}
		codec := snapshot.Codec{FrameImportant: cats.FrameImportant}
		if legacy, _ := cmd.Flags().GetBool("legacy"); legacy {
			codec.Format = snapshot.FormatLegacy
		}
		snap, err := codec.ReadFile(args[0])
		if err != nil {
			return err
		}
		b := snap.Bounds()
		fmt.Printf("bounds: x=%d y=%d w=%d h=%d\n", b.X, b.Y, b.W, b.H)

		counts := map[snapshot.Kind]int{}
		for _, p := range snap.Placed(snap.X, snap.Y) {
			counts[p.Kind]++
		}
		for k := snapshot.KindSign; k <= snapshot.KindFoodPlatter; k++ {
			if counts[k] > 0 {
				fmt.Printf("objects.%s: %d\n", k, counts[k])
			}
		}

		hist := map[int]int{}
		for _, col := range snap.Tiles {
			for _, t := range col {
				id := -1
				if t.Active() {
					id = int(t.Type)
				}
				hist[id]++
			}
		}
		ids := make([]int, 0, len(hist))
		for id := range hist {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if hist[ids[i]] != hist[ids[j]] {
				return hist[ids[i]] > hist[ids[j]]
			}
			return ids[i] < ids[j]
		})
		top, _ := cmd.Flags().GetInt("top")
		for i, id := range ids {
			if i >= top {
				break
			}
			name := "air"
			if id >= 0 {
				name = cats.Name(catalogs.Tile, id)
			}
			fmt.Printf("tile %4d %-24s %d\n", id, name, hist[id])
		}
		return nil
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter [=>] <expr...>",
	Short: "Syntax-check a filter expression and print how it groups",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cats, err := loadCatalogs(cmd)
		if err != nil {
			return err
		}
		tune, err := loadTuning(cmd)
		if err != nil {
			return err
		}
		env := expr.Env{IDs: cats, Regions: regions.FromTuning(tune.Regions)}

		_, filter := expr.SplitArgs(args)
		n, ok, err := expr.ParseArgs(filter, env)
		if !ok {
			n, err = expr.Parse(strings.Join(args, " "), env)
		}
		if err != nil {
			return err
		}
		fmt.Println(n.String())
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit <edits-file.jsonl.zst>",
	Short: "Decode an edit audit log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := persistlog.ReadEdits(args[0])
		if err != nil {
			return err
		}
		actor, _ := cmd.Flags().GetString("actor")
		enc := json.NewEncoder(os.Stdout)
		for _, e := range entries {
			if actor != "" && e.ActorID != actor {
				continue
			}
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	},
}
