package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/msalah0e/mentorgraph/internal/dataset"
	"github.com/msalah0e/mentorgraph/internal/ui"
	"github.com/spf13/cobra"
)

func yearsCmd() *cobra.Command {
	var asJSON bool
	var families bool

	cmd := &cobra.Command{
		Use:   "years",
		Short: "List academic years and their link counts",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			ds, err := loadDataset(cmd.Context(), cfg, newLogger(cfg))
			if err != nil {
				ui.Bad.Printf("  Failed to load dataset: %v\n", err)
				os.Exit(1)
			}

			if asJSON {
				data, _ := json.MarshalIndent(yearSummary(ds), "", "  ")
				fmt.Println(string(data))
				return
			}

			ui.Banner("academic years")
			if families {
				printFamilies(ds)
				return
			}
			years := ds.Years()
			if len(years) == 0 {
				fmt.Println("  No tutoring links in the dataset.")
				return
			}
			ui.Table([]string{"Year", "Links"}, yearRows(ds))
			fmt.Printf("\n  %d students, %d links across %d years\n", len(ds.Students), len(ds.Tutoring), len(years))
			fmt.Println(ui.Subtle.Sprint("  Filter with: mentorgraph render --year <year>"))
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&families, "families", false, "List families per year with their colours")
	return cmd
}

type yearInfo struct {
	Year     string           `json:"year"`
	Links    int              `json:"links"`
	Families []dataset.Family `json:"families"`
}

func yearSummary(ds *dataset.Dataset) []yearInfo {
	counts := ds.YearCounts()
	byYear := map[string][]dataset.Family{}
	for _, f := range ds.Families() {
		byYear[f.Year] = append(byYear[f.Year], f)
	}
	out := []yearInfo{}
	for _, y := range ds.Years() {
		out = append(out, yearInfo{Year: y, Links: counts[y], Families: byYear[y]})
	}
	return out
}

func yearRows(ds *dataset.Dataset) [][]string {
	var rows [][]string
	for _, y := range yearSummary(ds) {
		rows = append(rows, []string{y.Year, strconv.Itoa(y.Links)})
	}
	return rows
}

func printFamilies(ds *dataset.Dataset) {
	var rows [][]string
	for _, f := range ds.Families() {
		rows = append(rows, []string{f.Year, f.Name, ui.Swatch(f.Color)})
	}
	if len(rows) == 0 {
		fmt.Println("  No families in the dataset.")
		return
	}
	ui.Table([]string{"Year", "Family", "Colour"}, rows)
}
