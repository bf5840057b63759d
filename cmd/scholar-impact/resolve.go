package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/scholar-impact/pkg/journal"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <venue line>...",
	Short: "Resolve venue lines to journal keys and impact factors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := openStore(cmd.Context(), cfg).Matcher()

		type resolved struct {
			Label string              `json:"label"`
			Key   string              `json:"key"`
			Match journal.MatchResult `json:"match"`
		}
		var (
			out  []resolved
			rows [][]string
		)
		for i, label := range args {
			key, res := m.ResolveLabel(label)
			out = append(out, resolved{Label: label, Key: key, Match: res})
			rows = append(rows, entryRow(i+1, label, key, res))
		}

		if resolveJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"#", "Venue line", "Key", "Matched", "IF", "Counted"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print JSON")
}
