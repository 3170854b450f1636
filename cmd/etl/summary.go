package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"

	"github.com/forest-guardian/eo-etl/internal/load"
	"github.com/forest-guardian/eo-etl/internal/pipeline"
	"github.com/forest-guardian/eo-etl/internal/sentinel"
	"github.com/forest-guardian/eo-etl/internal/temperature"
)

func printBanner() {
	color.Cyan(figure.NewFigure("EO ETL", "standard", true).String())
	fmt.Println()
}

func printReport(r *pipeline.Report) {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("ETL SUMMARY")
	fmt.Println(strings.Repeat("=", 50))
	for _, o := range []pipeline.Outcome{r.Indices, r.Temperature} {
		if o.Succeeded {
			color.Green("  %s: SUCCESS", o.Product)
		} else {
			color.Red("  %s: FAILED (%v)", o.Product, o.Err)
		}
	}
	if r.Files != nil {
		for _, f := range r.Files.Indexes {
			fmt.Printf("  wrote %s\n", f)
		}
		for _, f := range []string{r.Files.Temperature, r.Files.Summary} {
			if f != "" {
				fmt.Printf("  wrote %s\n", f)
			}
		}
	}
	color.White("  elapsed: %s", r.Elapsed.Round(time.Millisecond))
}

func printIndexes(ix *sentinel.Indexes) {
	printRows(load.SummaryRows(ix, nil))
}

func printStats(st *temperature.Stats) {
	printRows(load.SummaryRows(nil, st))
	if st.FromKelvin {
		color.Yellow("  converted from Kelvin")
	}
}

func printRows(rows []load.SummaryRow) {
	for _, row := range rows {
		if row.Value == "" {
			color.Cyan(row.Metric)
			continue
		}
		fmt.Printf("  %-16s %10s %s\n", row.Metric, row.Value, row.Unit)
	}
}
