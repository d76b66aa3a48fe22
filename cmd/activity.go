package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/msalah0e/mentorgraph/internal/activity"
	"github.com/msalah0e/mentorgraph/internal/ui"
	"github.com/spf13/cobra"
)

func activityCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:     "activity",
		Aliases: []string{"log"},
		Short:   "Recent notifications from graph views: freezes, fits, exports",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("activity")

			entries, err := journal().Read(count)
			if err != nil || len(entries) == 0 {
				fmt.Println("  No activity recorded yet.")
				fmt.Println("  Activity is recorded by `mentorgraph render` and `mentorgraph serve`")
				return
			}
			ui.Table([]string{"Time", "Event", "Message", "Details"}, activityRows(entries))
			fmt.Printf("\n  Showing %d most recent entries\n", len(entries))
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries to show (0 for all)")
	cmd.AddCommand(
		activitySearchCmd(),
		activityClearCmd(),
		activityExportCmd(),
		activityStatsCmd(),
	)
	return cmd
}

func journal() *activity.Journal {
	return activity.Open(activity.DefaultPath())
}

func activityRows(entries []activity.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Timestamp.Format("Jan 02 15:04:05"),
			e.Event,
			e.Message,
			truncate(formatAttrs(e.Attrs), 40),
		})
	}
	return rows
}

// formatAttrs renders attrs as sorted key=value pairs.
func formatAttrs(attrs map[string]any) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, attrs[k]))
	}
	return strings.Join(parts, " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func activitySearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search activity entries by event or message",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			results, err := journal().Search(args[0], 50)
			if err != nil || len(results) == 0 {
				fmt.Printf("  No entries matching %q\n", args[0])
				return
			}
			ui.Banner("search results")
			ui.Table([]string{"Time", "Event", "Message", "Details"}, activityRows(results))
			fmt.Printf("\n  %d results\n", len(results))
		},
	}
}

func activityClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the activity journal",
		Run: func(cmd *cobra.Command, args []string) {
			if err := journal().Clear(); err != nil {
				ui.Bad.Printf("  Failed to clear: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Activity journal cleared\n", ui.StatusIcon(true))
		},
	}
}

func activityExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the activity journal as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := journal().Read(0)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if entries == nil {
				entries = []activity.Entry{}
			}
			data, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Println(string(data))
		},
	}
}

func activityStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count notifications by event",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("activity stats")

			entries, err := journal().Read(0)
			if err != nil || len(entries) == 0 {
				fmt.Println("  No activity data")
				return
			}
			fmt.Printf("  Total entries: %d\n\n", len(entries))
			ui.Table([]string{"Event", "Count"}, eventCounts(entries))
		},
	}
}

// eventCounts tallies entries per event, most frequent first.
func eventCounts(entries []activity.Entry) [][]string {
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Event]++
	}
	events := make([]string, 0, len(counts))
	for ev := range counts {
		events = append(events, ev)
	}
	sort.Slice(events, func(a, b int) bool {
		if counts[events[a]] != counts[events[b]] {
			return counts[events[a]] > counts[events[b]]
		}
		return events[a] < events[b]
	})
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{ev, fmt.Sprint(counts[ev])})
	}
	return rows
}
