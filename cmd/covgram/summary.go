package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"covgram/internal/coverage"
	"covgram/internal/pipeline"
)

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("   ")
	return table
}

// printSeedTable renders one row per seed.
func printSeedTable(out io.Writer, res *pipeline.Result) {
	if res == nil || len(res.Seeds) == 0 {
		return
	}
	goal := res.Goal.Len()
	table := newTable(out, []string{"SEED", "INPUTS", "COVERED", "FRACTION", "ATTEMPTS", "STAGNATED", "FILE"})
	for _, s := range res.Seeds {
		r := s.Result
		if r == nil {
			table.Append([]string{strconv.Itoa(s.Index), "-", "-", "-", "-", "-", "-"})
			continue
		}
		stagnated := "no"
		if r.Warning != nil {
			stagnated = "yes"
			if r.Warning.Capped {
				stagnated = "capped"
			}
		}
		file := s.Path
		if file == "" {
			file = "(dry run)"
		}
		table.Append([]string{
			strconv.Itoa(s.Index),
			strconv.Itoa(len(r.Inputs)),
			fmt.Sprintf("%d/%d", goal-r.Residual.Len(), goal),
			fmt.Sprintf("%.2f", r.Fraction),
			strconv.Itoa(r.Attempts),
			stagnated,
			file,
		})
	}
	table.Render()
}

// printGoalTable renders goal units, several per row to keep long goals
// readable.
func printGoalTable(out io.Writer, units []coverage.Unit, columns int) {
	if columns <= 0 {
		columns = 4
	}
	header := make([]string, columns)
	for i := range header {
		header[i] = "UNIT"
	}
	table := newTable(out, header)
	row := make([]string, 0, columns)
	for _, u := range units {
		row = append(row, strconv.Quote(string(u)))
		if len(row) == columns {
			table.Append(row)
			row = make([]string, 0, columns)
		}
	}
	if len(row) > 0 {
		for len(row) < columns {
			row = append(row, "")
		}
		table.Append(row)
	}
	table.Render()
}
