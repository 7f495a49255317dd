package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/index"
	"github.com/respack/respack/internal/resource"
)

// dumpRecord is the JSON shape of one dumped index entry.
type dumpRecord struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	LimitKey string `json:"limitKey"`
	Value    string `json:"value"`
}

var dumpCmd = &cobra.Command{
	Use:   "dump <resources.index>",
	Short: "Inspect a built resource index.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := index.Load(args[0])
		if err != nil {
			return diag.New(diag.CodeParseHap, args[0], err.Error()).Wrap(err)
		}
		var records []dumpRecord
		for id, list := range items {
			for _, it := range list {
				records = append(records, dumpRecord{
					ID:       fmt.Sprintf("0x%08X", id),
					Type:     resource.TypeString(it.Type),
					Name:     it.Name,
					LimitKey: it.LimitKey,
					Value:    string(it.Data),
				})
			}
		}
		sort.Slice(records, func(i, j int) bool {
			if records[i].ID != records[j].ID {
				return records[i].ID < records[j].ID
			}
			return records[i].LimitKey < records[j].LimitKey
		})
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "    ")
		return enc.Encode(records)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
