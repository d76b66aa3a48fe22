package main

import (
	"embed"
	"os"

	"github.com/msalah0e/mentorgraph/cmd"
)

//go:embed theme/*.toml
var themeFS embed.FS

func main() {
	cmd.SetThemeFS(themeFS)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
