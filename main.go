package main

import (
	"context"
	"os"

	"github.com/DrFREEST/omcm/cmd"
	"github.com/DrFREEST/omcm/tui"
)

func main() {
	app := cmd.RootCommand()

	if err := app.Run(context.Background(), os.Args); err != nil {
		tui.Error("%v", err)
		os.Exit(1)
	}
}
