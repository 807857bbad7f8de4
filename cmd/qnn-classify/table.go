package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/amikos-tech/pure-qnn/classify"
)

func renderResults(w io.Writer, results []classify.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"RANK", "CLASS", "LABEL", "SCORE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")

	for i, r := range results {
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.Index),
			r.Label,
			fmt.Sprintf("%.4f", r.Score),
		})
	}
	table.Render()
}
