package main

import (
	"github.com/spf13/cobra"

	"github.com/khabzox/business-lead-finder/internal/pipeline"
)

var (
	scoreInput    string
	scoreOutput   string
	scoreMinScore int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score records without probing (fully deterministic)",
	RunE: func(cmd *cobra.Command, args []string) error {
		raws, err := readRawRecords(scoreInput)
		if err != nil {
			return err
		}

		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}

		result, err := p.Run(cmd.Context(), raws, pipeline.Options{Probe: false})
		if err != nil {
			return err
		}

		leads := pipeline.Filter{MinScore: scoreMinScore}.Apply(result.Leads)
		return writeLeadsJSON(scoreOutput, leads, result.Summary)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "path to raw records JSON file (required)")
	scoreCmd.Flags().StringVar(&scoreOutput, "output", "", "path for scored leads JSON (default stdout)")
	scoreCmd.Flags().IntVar(&scoreMinScore, "min-score", 0, "drop leads below this score")
	_ = scoreCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scoreCmd)
}
