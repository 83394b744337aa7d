package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeney/compare-engine/internal/config"
	"github.com/sweeney/compare-engine/internal/store"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored Comparison Memory definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		s, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()

		defs, err := s.LoadAll(context.Background())
		if err != nil {
			return err
		}

		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(defs)
		}
		if len(defs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no definitions")
			return nil
		}
		for _, d := range defs {
			state := "enabled"
			if d.Disabled {
				state = "disabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s %s  groups=%d  interval=%ds  out=%s\n",
				d.ID, d.Name, state, len(d.Groups), d.IntervalSeconds, d.OutputItemID)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	RootCmd.AddCommand(listCmd)
}
