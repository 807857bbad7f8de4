package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/amikos-tech/pure-qnn/classify"
)

func newLabelsCmd(root *rootOptions) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Load the label file and report how many classes it defines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.resolveConfig(cmd)
			if err != nil {
				return err
			}
			labels, err := classify.LoadLabels(cfg.LabelsPath(), cfg.NumClasses)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d labels loaded from %s\n", len(labels), cfg.LabelsPath())
			if !list {
				return nil
			}
			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"CLASS", "LABEL"})
			table.SetBorder(false)
			table.SetNoWhiteSpace(true)
			table.SetTablePadding("    ")
			for i, l := range labels {
				table.Append([]string{strconv.Itoa(i), l})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "Print every label with its class index")
	return cmd
}
