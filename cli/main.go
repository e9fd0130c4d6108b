package main

import (
	"os"

	"github.com/satishbabariya/normgo/cli/commands"
	"github.com/satishbabariya/normgo/cli/internal/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}
}
