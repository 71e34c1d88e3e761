package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the map store",
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached maps, newest first",
	RunE:  runStoreList,
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeListCmd)
}

func runStoreList(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("no store configured: set --store or store.path")
	}
	defer st.Close()

	meta, err := st.Metadata()
	if err != nil {
		return err
	}
	keys, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	names := make([]string, 0, len(meta))
	for name := range meta {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "# %s: %s\n", name, meta[name])
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BACKEND\tHEIGHT\tWIDTH\tOCTAVES\tMIN_GRID\tSEED")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", k.Backend, k.Height, k.Width, k.Octaves, k.MinGridSize, k.Seed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	logger.Debug("Listed maps", "count", len(keys))
	return nil
}
