package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khabzox/business-lead-finder/internal/domains"
)

var domainsCategory string

var domainsCmd = &cobra.Command{
	Use:   "domains <business name>",
	Short: "Print the candidate domains generated for a business",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")

		gen := domains.New(cfg.Domains)
		for _, candidate := range gen.Generate(name, domainsCategory) {
			fmt.Println(candidate)
		}
		return nil
	},
}

func init() {
	domainsCmd.Flags().StringVar(&domainsCategory, "category", "", "business category, e.g. cafe")
	rootCmd.AddCommand(domainsCmd)
}
