package cmd

import (
	"context"
	"strconv"
	"time"

	"github.com/msalah0e/mentorgraph/internal/dataset"
	"github.com/spf13/cobra"
)

// completionCmd generates shell completion scripts.
func completionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate completion scripts for your shell.

  # Bash (add to ~/.bashrc)
  eval "$(mentorgraph completion bash)"

  # Zsh (add to ~/.zshrc)
  eval "$(mentorgraph completion zsh)"

  # Fish
  mentorgraph completion fish | source

  # PowerShell
  mentorgraph completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				_ = rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				_ = rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				_ = rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				_ = rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}

	return cmd
}

// formatCompletionFunc completes render output formats.
func formatCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"svg\tCleaned snapshot",
		"dot\tGraphviz source",
		"json\tView state frame",
	}, cobra.ShellCompDirectiveNoFileComp
}

// yearCompletionFunc completes academic years from the configured dataset.
// Only local files are read; completing against the API would stall the
// shell.
func yearCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	src, ok := dataSource(cfg).(dataset.FileSource)
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ds, err := dataset.Load(ctx, src)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	counts := ds.YearCounts()
	var out []string
	for _, y := range ds.Years() {
		out = append(out, y+"\t"+plural(counts[y], "link"))
	}
	return append(out, dataset.AllYears+"\tEvery year"), cobra.ShellCompDirectiveNoFileComp
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
