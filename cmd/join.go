package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/procsim/procsim/sim/workload"
)

var (
	joinPattern   string
	joinOutput    string
	joinMaxBlocks int
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Concatenate trace blocks into one trace",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := workload.JoinTraceFile(joinPattern, joinOutput, joinMaxBlocks)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "joined %d blocks into %s\n", len(stats.Blocks), joinOutput)
		return nil
	},
}

func init() {
	joinCmd.Flags().StringVar(&joinPattern, "pattern", "", "Glob of block files (** supported)")
	joinCmd.Flags().StringVarP(&joinOutput, "output", "o", "joined.trace", "Joined trace path")
	joinCmd.Flags().IntVar(&joinMaxBlocks, "max-blocks", 0, "Stop at the block with this index (0 = all)")
	_ = joinCmd.MarkFlagRequired("pattern")

	rootCmd.AddCommand(joinCmd)
}
